package xcode

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"xcv/internal/run"
)

// Install is one Xcode copy present on disk.
type Install struct {
	Version Version
	Path    string
}

// Detector finds installed Xcode bundles on the system.
type Detector struct {
	searchPaths []string
	runner      run.Runner
}

// NewDetector creates a detector scanning the given base directories.
// /Applications is always included.
func NewDetector(searchPaths []string, runner run.Runner) *Detector {
	paths := []string{"/Applications"}
	paths = append(paths, searchPaths...)
	return &Detector{searchPaths: paths, runner: runner}
}

// FindAll returns every valid Xcode bundle under the search paths, sorted by
// version ascending. The scan is a fresh snapshot on every call; callers must
// not cache it across blocking operations.
func (d *Detector) FindAll(ctx context.Context) ([]Install, error) {
	seen := make(map[string]Install)

	for _, base := range d.searchPaths {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "Xcode") {
				continue
			}

			bundle := filepath.Join(base, entry.Name())
			if !d.IsValidBundle(bundle) {
				continue
			}

			key := strings.ToLower(filepath.Clean(bundle))
			seen[key] = Install{Version: d.VersionOf(ctx, bundle), Path: filepath.Clean(bundle)}
		}
	}

	installs := make([]Install, 0, len(seen))
	for _, inst := range seen {
		installs = append(installs, inst)
	}
	sort.Slice(installs, func(i, j int) bool {
		if c := installs[i].Version.Compare(installs[j].Version); c != 0 {
			return c < 0
		}
		return installs[i].Path < installs[j].Path
	})

	return installs, nil
}

// IsValidBundle checks that a path points at an Xcode bundle with a usable
// developer directory.
func (d *Detector) IsValidBundle(path string) bool {
	xcodebuild := filepath.Join(path, "Contents", "Developer", "usr", "bin", "xcodebuild")
	if _, err := os.Stat(xcodebuild); err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(path, "Contents", "Developer"))
	return err == nil && info.IsDir()
}

// DeveloperDir returns the developer directory inside a bundle, the path the
// active-toolchain pointer records.
func DeveloperDir(bundle string) string {
	return filepath.Join(bundle, "Contents", "Developer")
}

// VersionOf determines the version of an installed bundle. The directory
// name is preferred because xcodebuild does not report pre-release labels;
// unversioned bundle names fall back to asking xcodebuild.
func (d *Detector) VersionOf(ctx context.Context, bundle string) Version {
	if v, ok := ParseBundleName(filepath.Base(bundle)); ok {
		return v
	}

	xcodebuild := filepath.Join(bundle, "Contents", "Developer", "usr", "bin", "xcodebuild")
	res, err := d.runner.Run(ctx, xcodebuild, "-version")
	if err == nil && res.ExitStatus == 0 {
		if v, ok := parseXcodebuildOutput(res.Stdout); ok {
			return v
		}
	}

	return Version{}
}

var xcodebuildVersionRe = regexp.MustCompile(`(?m)^Xcode\s+(\d+(?:\.\d+){0,2})`)

// parseXcodebuildOutput parses output like "Xcode 11.0\nBuild version 11A420a".
func parseXcodebuildOutput(output string) (Version, bool) {
	m := xcodebuildVersionRe.FindStringSubmatch(output)
	if len(m) < 2 {
		return Version{}, false
	}
	v, err := parseCore(m[1])
	if err != nil {
		return Version{}, false
	}
	return v, true
}
