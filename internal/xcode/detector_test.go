package xcode

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xcv/internal/run"
)

type scriptedRunner struct {
	result run.Result
	err    error
}

func (s *scriptedRunner) Run(context.Context, string, ...string) (run.Result, error) {
	return s.result, s.err
}

func (s *scriptedRunner) RunIn(context.Context, string, string, ...string) (run.Result, error) {
	return s.result, s.err
}

func makeBundle(t *testing.T, base, name string) string {
	t.Helper()
	bundle := filepath.Join(base, name)
	bin := filepath.Join(bundle, "Contents", "Developer", "usr", "bin")
	require.NoError(t, os.MkdirAll(bin, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "xcodebuild"), []byte("#!/bin/sh\n"), 0755))
	return bundle
}

func TestFindAll(t *testing.T) {
	base := t.TempDir()
	makeBundle(t, base, "Xcode-11.0.0-beta.7.app")
	makeBundle(t, base, "Xcode-10.2.1.app")

	// An Xcode-prefixed directory without the bundle layout is skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(base, "Xcode-junk.app"), 0755))

	// Non-Xcode entries are never considered.
	makeBundle(t, base, "Playgrounds.app")

	d := NewDetector([]string{base}, &scriptedRunner{})
	installs, err := d.FindAll(context.Background())
	require.NoError(t, err)

	require.Len(t, installs, 2)
	assert.Equal(t, Version{Major: 10, Minor: 2, Patch: 1}, installs[0].Version)
	assert.Equal(t, Version{Major: 11, Label: "beta", Index: 7}, installs[1].Version)
}

func TestFindAll_DeduplicatesOverlappingSearchPaths(t *testing.T) {
	base := t.TempDir()
	makeBundle(t, base, "Xcode-10.2.1.app")

	d := NewDetector([]string{base, base}, &scriptedRunner{})
	installs, err := d.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, installs, 1)
}

func TestVersionOf_PrefersBundleName(t *testing.T) {
	base := t.TempDir()
	bundle := makeBundle(t, base, "Xcode-11.0.0-beta.7.app")

	// xcodebuild would report "11.0" without the label; the name wins.
	runner := &scriptedRunner{result: run.Result{Stdout: "Xcode 11.0\nBuild version 11M392r\n"}}
	d := NewDetector(nil, runner)

	v := d.VersionOf(context.Background(), bundle)
	assert.Equal(t, Version{Major: 11, Label: "beta", Index: 7}, v)
}

func TestVersionOf_UnversionedNameAsksXcodebuild(t *testing.T) {
	base := t.TempDir()
	bundle := makeBundle(t, base, "Xcode.app")

	runner := &scriptedRunner{result: run.Result{Stdout: "Xcode 10.2.1\nBuild version 10E1001\n"}}
	d := NewDetector(nil, runner)

	v := d.VersionOf(context.Background(), bundle)
	assert.Equal(t, Version{Major: 10, Minor: 2, Patch: 1}, v)
}

func TestIsValidBundle(t *testing.T) {
	base := t.TempDir()
	bundle := makeBundle(t, base, "Xcode-10.2.1.app")

	d := NewDetector(nil, &scriptedRunner{})
	assert.True(t, d.IsValidBundle(bundle))
	assert.False(t, d.IsValidBundle(filepath.Join(base, "missing.app")))
}

func TestDeveloperDir(t *testing.T) {
	assert.Equal(t,
		filepath.Join("/Applications/Xcode-11.0.0.app", "Contents", "Developer"),
		DeveloperDir("/Applications/Xcode-11.0.0.app"))
}
