package xcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xcv/internal/outcome"
)

func mustParseAll(t *testing.T, tokens ...string) []Version {
	t.Helper()
	out := make([]Version, len(tokens))
	for i, tok := range tokens {
		v, err := ParseVersion(tok)
		require.NoError(t, err)
		out[i] = v
	}
	return out
}

func TestResolve_ExactPrerelease(t *testing.T) {
	candidates := mustParseAll(t, "11 beta 6", "11 beta 7", "10.2.1")

	idx, err := Resolve("11 Beta 7", candidates)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestResolve_MajorOnlyPrefersNewest(t *testing.T) {
	candidates := mustParseAll(t, "10.1", "10.2", "10.2.1", "11 beta 7")

	idx, err := Resolve("10", candidates)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestResolve_FinalBeatsPrerelease(t *testing.T) {
	candidates := mustParseAll(t, "11 beta 7", "11", "11 rc 1")

	idx, err := Resolve("11", candidates)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestResolve_LabelWithoutIndexPrefersHighest(t *testing.T) {
	candidates := mustParseAll(t, "11 beta 5", "11 beta 7", "11 beta 6")

	idx, err := Resolve("11 beta", candidates)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestResolve_NotFound(t *testing.T) {
	candidates := mustParseAll(t, "10.2.1", "11 beta 7")

	_, err := Resolve("9.9.9", candidates)
	assert.Equal(t, outcome.KindNotFound, outcome.KindOf(err))
}

func TestResolve_EmptyCandidates(t *testing.T) {
	_, err := Resolve("11", nil)
	assert.Equal(t, outcome.KindNotFound, outcome.KindOf(err))
}

func TestResolve_AmbiguousReportsAllTies(t *testing.T) {
	// Two distinct catalog entries carrying an identical version.
	candidates := mustParseAll(t, "11 beta 7", "11 beta 7")

	_, err := Resolve("11 beta 7", candidates)
	require.Equal(t, outcome.KindAmbiguous, outcome.KindOf(err))

	f := outcome.AsFailure(err)
	require.NotNil(t, f)
	assert.Len(t, f.Candidates, 2)
}

func TestResolve_PathTokenRejected(t *testing.T) {
	candidates := mustParseAll(t, "11 beta 7")

	_, err := Resolve("/Applications/Xcode.app", candidates)
	assert.Equal(t, outcome.KindNotFound, outcome.KindOf(err))
}

func TestResolve_DoesNotMutateCandidates(t *testing.T) {
	candidates := mustParseAll(t, "11 beta 7", "10.2.1", "11")
	snapshot := append([]Version(nil), candidates...)

	_, err := Resolve("11", candidates)
	require.NoError(t, err)
	assert.Equal(t, snapshot, candidates)
}

func TestParseQuery_Path(t *testing.T) {
	for _, tok := range []string{"/Applications/Xcode.app", "./Xcode.app", "Xcode-11.0.0.app"} {
		t.Run(tok, func(t *testing.T) {
			q, err := ParseQuery(tok)
			require.NoError(t, err)
			assert.Equal(t, tok, q.Path)
		})
	}
}

func TestParseQuery_Specificity(t *testing.T) {
	q, err := ParseQuery("11")
	require.NoError(t, err)
	assert.False(t, q.MinorSet)
	assert.False(t, q.PatchSet)
	assert.False(t, q.LabelSet)

	q, err = ParseQuery("11.0")
	require.NoError(t, err)
	assert.True(t, q.MinorSet)
	assert.False(t, q.PatchSet)

	q, err = ParseQuery("11 beta")
	require.NoError(t, err)
	assert.True(t, q.LabelSet)
	assert.False(t, q.IndexSet)
}

func TestQueryMatches_MinorWildcard(t *testing.T) {
	q, err := ParseQuery("10")
	require.NoError(t, err)

	assert.True(t, q.Matches(Version{Major: 10, Minor: 2, Patch: 1}))
	assert.True(t, q.Matches(Version{Major: 10}))
	assert.False(t, q.Matches(Version{Major: 11}))
}

func TestQueryMatches_LabelUnsetMatchesPrereleases(t *testing.T) {
	// "11" matches beta builds too; ranking decides which wins.
	q, err := ParseQuery("11")
	require.NoError(t, err)

	assert.True(t, q.Matches(Version{Major: 11, Label: "beta", Index: 7}))
	assert.True(t, q.Matches(Version{Major: 11}))
}
