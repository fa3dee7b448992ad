package xcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version identifies one installable Xcode release: a semantic version core
// plus an optional pre-release label and label index ("11.0.0 beta 7").
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
	Label string // "", "dp", "beta", "rc", "gm seed", "gm"
	Index int    // 0 when the label carries no number
}

// labelRanks orders pre-release trains from earliest to latest. The empty
// label (a final release) always sorts above every pre-release.
var labelRanks = map[string]int{
	"dp":      1,
	"beta":    2,
	"rc":      3,
	"gm seed": 4,
	"gm":      5,
}

// labelAliases maps the spellings users and release feeds use onto the
// canonical labels above.
var labelAliases = map[string]string{
	"dp":                "dp",
	"developer preview": "dp",
	"beta":              "beta",
	"b":                 "beta",
	"rc":                "rc",
	"release candidate": "rc",
	"gm":                "gm",
	"gm seed":           "gm seed",
	"gmseed":            "gm seed",
	"seed":              "gm seed",
}

// NormalizeLabel resolves a label spelling to its canonical form.
// Returns false for labels that are not a known pre-release train.
func NormalizeLabel(label string) (string, bool) {
	canonical, ok := labelAliases[strings.ToLower(strings.TrimSpace(label))]
	return canonical, ok
}

// ParseVersion parses a full version string such as "10.2.1", "11.0 beta 7"
// or "9.4.1 gm seed 2". Missing minor/patch components default to zero.
func ParseVersion(s string) (Version, error) {
	q, err := ParseQuery(s)
	if err != nil {
		return Version{}, err
	}
	if q.Path != "" {
		return Version{}, fmt.Errorf("not a version: %q", s)
	}
	return q.Version, nil
}

// Core returns the numeric components as a semver value for comparison.
func (v Version) Core() *semver.Version {
	return semver.New(v.Major, v.Minor, v.Patch, "", "")
}

// IsPrerelease reports whether v carries a pre-release label.
func (v Version) IsPrerelease() bool {
	return v.Label != ""
}

// Compare orders versions: semver core first, then final release above any
// pre-release, then later pre-release train, then higher label index.
func (v Version) Compare(o Version) int {
	if c := v.Core().Compare(o.Core()); c != 0 {
		return c
	}
	if v.Label == "" && o.Label != "" {
		return 1
	}
	if v.Label != "" && o.Label == "" {
		return -1
	}
	if r := labelRanks[v.Label] - labelRanks[o.Label]; r != 0 {
		if r > 0 {
			return 1
		}
		return -1
	}
	if v.Index != o.Index {
		if v.Index > o.Index {
			return 1
		}
		return -1
	}
	return 0
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Label != "" {
		s += " " + v.Label
		if v.Index > 0 {
			s += " " + strconv.Itoa(v.Index)
		}
	}
	return s
}

// BundleName returns the install directory name for this version, e.g.
// "Xcode-11.0.0-beta.7.app". The mapping round-trips through
// ParseBundleName so installed copies can be identified without running
// anything inside the bundle.
func (v Version) BundleName() string {
	name := fmt.Sprintf("Xcode-%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Label != "" {
		name += "-" + strings.ReplaceAll(v.Label, " ", ".")
		if v.Index > 0 {
			name += "." + strconv.Itoa(v.Index)
		}
	}
	return name + ".app"
}

// ParseBundleName recovers a Version from an install directory name
// produced by BundleName. Plain "Xcode.app" is accepted as an unversioned
// bundle and reported as not-ok.
func ParseBundleName(name string) (Version, bool) {
	name = strings.TrimSuffix(name, ".app")
	if !strings.HasPrefix(name, "Xcode-") {
		return Version{}, false
	}
	rest := strings.TrimPrefix(name, "Xcode-")

	core := rest
	label := ""
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		core = rest[:i]
		label = rest[i+1:]
	}

	v, err := parseCore(core)
	if err != nil {
		return Version{}, false
	}

	if label != "" {
		parts := strings.Split(label, ".")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			v.Index = n
			parts = parts[:len(parts)-1]
		}
		canonical, ok := NormalizeLabel(strings.Join(parts, " "))
		if !ok {
			return Version{}, false
		}
		v.Label = canonical
	}

	return v, true
}

// parseCore parses a dotted numeric version with one to three components.
func parseCore(s string) (Version, error) {
	sv, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	if sv.Prerelease() != "" || sv.Metadata() != "" {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	return Version{Major: sv.Major(), Minor: sv.Minor(), Patch: sv.Patch()}, nil
}
