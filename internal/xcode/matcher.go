package xcode

import (
	"sort"
	"strconv"
	"strings"

	"xcv/internal/outcome"
)

// Query is the parsed form of a user-supplied version token. Exactly one of
// the semantic query and the literal path is set.
type Query struct {
	Version Version
	Path    string

	// Specificity flags. An unspecified component matches any candidate
	// value; its zero default is used only for comparison.
	MinorSet bool
	PatchSet bool
	LabelSet bool
	IndexSet bool
}

// ParseQuery parses a free-form token such as "11", "10.2.1", "11 Beta 7" or
// an absolute bundle path. Tokens are split on whitespace; the leading
// component must parse as a one-to-three part numeric version, the remainder
// as a known pre-release label with an optional trailing index.
func ParseQuery(token string) (Query, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Query{}, outcome.NotFound("empty version")
	}

	if strings.HasPrefix(token, "/") || strings.HasPrefix(token, ".") || strings.HasSuffix(token, ".app") {
		return Query{Path: token}, nil
	}

	fields := strings.Fields(token)

	v, err := parseCore(fields[0])
	if err != nil {
		return Query{}, outcome.NotFound("unrecognized version %q", token)
	}

	q := Query{Version: v}
	dots := strings.Count(fields[0], ".")
	q.MinorSet = dots >= 1
	q.PatchSet = dots >= 2

	rest := fields[1:]
	if len(rest) == 0 {
		return q, nil
	}

	// A trailing bare integer is the label's index ("Beta 7").
	if n, err := strconv.Atoi(rest[len(rest)-1]); err == nil {
		q.Version.Index = n
		q.IndexSet = true
		rest = rest[:len(rest)-1]
	}

	label, ok := NormalizeLabel(strings.Join(rest, " "))
	if !ok || label == "" {
		return Query{}, outcome.NotFound("unrecognized version %q", token)
	}
	q.Version.Label = label
	q.LabelSet = true

	return q, nil
}

// Matches reports whether a candidate version fits the query, treating every
// unspecified component as a wildcard.
func (q Query) Matches(v Version) bool {
	if q.Path != "" {
		return false
	}
	if v.Major != q.Version.Major {
		return false
	}
	if q.MinorSet && v.Minor != q.Version.Minor {
		return false
	}
	if q.PatchSet && v.Patch != q.Version.Patch {
		return false
	}
	if q.LabelSet {
		if v.Label != q.Version.Label {
			return false
		}
		if q.IndexSet && v.Index != q.Version.Index {
			return false
		}
	}
	return true
}

// Resolve matches a user token against candidate versions and returns the
// index of the single best match. Pure over its inputs: no I/O, no mutation.
//
// Among matches the highest semantic version wins, then the final release
// over any pre-release, then the latest pre-release train and index. A
// residual tie is reported as ambiguous with every tied candidate.
func Resolve(token string, candidates []Version) (int, error) {
	q, err := ParseQuery(token)
	if err != nil {
		return -1, err
	}
	if q.Path != "" {
		return -1, outcome.NotFound("%q is a path, not a version", token)
	}

	matched := make([]int, 0, len(candidates))
	for i, v := range candidates {
		if q.Matches(v) {
			matched = append(matched, i)
		}
	}

	if len(matched) == 0 {
		return -1, outcome.NotFound("no Xcode matching %q", token)
	}

	sort.SliceStable(matched, func(a, b int) bool {
		return candidates[matched[a]].Compare(candidates[matched[b]]) > 0
	})

	best := matched[0]
	tied := []string{candidates[best].String()}
	for _, i := range matched[1:] {
		if candidates[i].Compare(candidates[best]) == 0 {
			tied = append(tied, candidates[i].String())
		}
	}
	if len(tied) > 1 {
		return -1, outcome.Ambiguous("ambiguous version "+strconv.Quote(token), tied)
	}

	return best, nil
}
