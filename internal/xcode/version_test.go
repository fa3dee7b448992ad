package xcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want Version
	}{
		{"10.2.1", Version{Major: 10, Minor: 2, Patch: 1}},
		{"11", Version{Major: 11}},
		{"11.0", Version{Major: 11}},
		{"11 beta 7", Version{Major: 11, Label: "beta", Index: 7}},
		{"11 Beta 7", Version{Major: 11, Label: "beta", Index: 7}},
		{"11.4 b 2", Version{Major: 11, Minor: 4, Label: "beta", Index: 2}},
		{"10.2 GM seed", Version{Major: 10, Minor: 2, Label: "gm seed"}},
		{"9.4.1 GM Seed 2", Version{Major: 9, Minor: 4, Patch: 1, Label: "gm seed", Index: 2}},
		{"12 release candidate", Version{Major: 12, Label: "rc"}},
		{"13 RC 1", Version{Major: 13, Label: "rc", Index: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVersion_Invalid(t *testing.T) {
	for _, in := range []string{"", "banana", "11 banana", "11 beta banana", "/Applications/Xcode.app"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseVersion(in)
			assert.Error(t, err)
		})
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"10.2.1", "10.2.0", 1},
		{"10.2.1", "11", -1},
		{"11", "11 beta 7", 1},          // final above any pre-release
		{"11 beta 7", "11 beta 6", 1},   // later index
		{"11 rc 1", "11 beta 7", 1},     // later train
		{"11 gm", "11 gm seed 2", 1},    // gm above gm seed
		{"11 beta 1", "11 dp 3", 1},     // beta above developer preview
		{"11 beta 7", "11 beta 7", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			a, err := ParseVersion(tt.a)
			require.NoError(t, err)
			b, err := ParseVersion(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Compare(b))
			assert.Equal(t, -tt.want, b.Compare(a))
		})
	}
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "11.0.0 beta 7", Version{Major: 11, Label: "beta", Index: 7}.String())
	assert.Equal(t, "10.2.1", Version{Major: 10, Minor: 2, Patch: 1}.String())
	assert.Equal(t, "10.2.0 gm seed", Version{Major: 10, Minor: 2, Label: "gm seed"}.String())
}

func TestBundleNameRoundTrip(t *testing.T) {
	versions := []Version{
		{Major: 10, Minor: 2, Patch: 1},
		{Major: 11, Label: "beta", Index: 7},
		{Major: 9, Minor: 4, Patch: 1, Label: "gm seed", Index: 2},
		{Major: 12, Label: "rc", Index: 1},
		{Major: 13, Label: "gm"},
	}

	for _, v := range versions {
		t.Run(v.String(), func(t *testing.T) {
			name := v.BundleName()
			got, ok := ParseBundleName(name)
			require.True(t, ok, "bundle name %q should parse", name)
			assert.Equal(t, v, got)
		})
	}
}

func TestBundleName(t *testing.T) {
	assert.Equal(t, "Xcode-11.0.0-beta.7.app", Version{Major: 11, Label: "beta", Index: 7}.BundleName())
	assert.Equal(t, "Xcode-10.2.1.app", Version{Major: 10, Minor: 2, Patch: 1}.BundleName())
	assert.Equal(t, "Xcode-9.4.1-gm.seed.2.app", Version{Major: 9, Minor: 4, Patch: 1, Label: "gm seed", Index: 2}.BundleName())
}

func TestParseBundleName_Rejects(t *testing.T) {
	for _, name := range []string{"Xcode.app", "NotXcode-11.0.0.app", "Xcode-banana.app", "Xcode-11.0.0-banana.app"} {
		t.Run(name, func(t *testing.T) {
			_, ok := ParseBundleName(name)
			assert.False(t, ok)
		})
	}
}
