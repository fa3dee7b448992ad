package selection

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xcv/internal/outcome"
	"xcv/internal/run"
	"xcv/internal/xcode"
)

// recordingRunner captures every spawned command and answers xcode-select
// invocations from a canned script.
type recordingRunner struct {
	calls      []string
	activePath string
	switchExit int
	switchErr  string
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) (run.Result, error) {
	cmd := run.CommandLine(name, args...)
	r.calls = append(r.calls, cmd)

	if name == "xcode-select" {
		switch args[0] {
		case "--print-path":
			return run.Result{Stdout: r.activePath + "\n"}, nil
		case "--switch":
			return run.Result{ExitStatus: r.switchExit, Stderr: r.switchErr}, nil
		}
	}
	return run.Result{}, nil
}

func (r *recordingRunner) RunIn(ctx context.Context, _, name string, args ...string) (run.Result, error) {
	return r.Run(ctx, name, args...)
}

func (r *recordingRunner) switched() bool {
	for _, c := range r.calls {
		if strings.Contains(c, "--switch") {
			return true
		}
	}
	return false
}

func makeBundle(t *testing.T, base, name string) string {
	t.Helper()
	bundle := filepath.Join(base, name)
	bin := filepath.Join(bundle, "Contents", "Developer", "usr", "bin")
	require.NoError(t, os.MkdirAll(bin, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "xcodebuild"), []byte("#!/bin/sh\n"), 0755))
	return bundle
}

func newManager(t *testing.T, base string, runner *recordingRunner, interactive bool) *Manager {
	t.Helper()
	return NewManager(xcode.NewDetector([]string{base}, runner), runner, interactive)
}

func TestSelect_ByVersion(t *testing.T) {
	base := t.TempDir()
	makeBundle(t, base, "Xcode-10.2.1.app")
	bundle := makeBundle(t, base, "Xcode-11.0.0-beta.7.app")

	runner := &recordingRunner{}
	mgr := newManager(t, base, runner, false)

	target, err := mgr.Select(context.Background(), "11 beta 7")
	require.NoError(t, err)
	assert.Equal(t, bundle, target.Path)
	assert.Contains(t, runner.calls, run.CommandLine("xcode-select", "--switch", xcode.DeveloperDir(bundle)))
}

func TestSelect_ByPath(t *testing.T) {
	base := t.TempDir()
	bundle := makeBundle(t, base, "Xcode-10.2.1.app")

	runner := &recordingRunner{}
	mgr := newManager(t, base, runner, false)

	target, err := mgr.Select(context.Background(), bundle)
	require.NoError(t, err)
	assert.Equal(t, bundle, target.Path)
}

func TestSelect_InvalidPathLeavesPointerUntouched(t *testing.T) {
	base := t.TempDir()
	makeBundle(t, base, "Xcode-10.2.1.app")

	runner := &recordingRunner{}
	mgr := newManager(t, base, runner, false)

	_, err := mgr.Select(context.Background(), filepath.Join(base, "nope.app"))
	assert.Equal(t, outcome.KindInvalidPath, outcome.KindOf(err))
	assert.False(t, runner.switched(), "a failed resolution must not move the pointer")
}

func TestSelect_UnknownVersionLeavesPointerUntouched(t *testing.T) {
	base := t.TempDir()
	makeBundle(t, base, "Xcode-10.2.1.app")

	runner := &recordingRunner{}
	mgr := newManager(t, base, runner, false)

	_, err := mgr.Select(context.Background(), "9.9.9")
	assert.Equal(t, outcome.KindNotFound, outcome.KindOf(err))
	assert.False(t, runner.switched())
}

func TestSelect_SwitchFailureSurfacesProcessOutput(t *testing.T) {
	base := t.TempDir()
	makeBundle(t, base, "Xcode-10.2.1.app")

	runner := &recordingRunner{switchExit: 1, switchErr: "xcode-select: error: permission denied"}
	mgr := newManager(t, base, runner, false)

	_, err := mgr.Select(context.Background(), "10.2.1")
	require.Equal(t, outcome.KindExternalProcess, outcome.KindOf(err))

	f := outcome.AsFailure(err)
	require.NotNil(t, f)
	assert.Contains(t, f.Stderr, "permission denied")
	assert.Contains(t, f.Command, "xcode-select")
}

func TestFind_EmptyTokenNonInteractive(t *testing.T) {
	base := t.TempDir()
	makeBundle(t, base, "Xcode-10.2.1.app")

	runner := &recordingRunner{}
	mgr := newManager(t, base, runner, false)

	_, err := mgr.Find(context.Background(), "")
	assert.Equal(t, outcome.KindNoSelection, outcome.KindOf(err))
	assert.False(t, runner.switched())
}

func TestFind_PathOutsideKnownInstalls(t *testing.T) {
	base := t.TempDir()
	makeBundle(t, base, "Xcode-10.2.1.app")

	// A real bundle, but under a directory the detector does not scan.
	elsewhere := makeBundle(t, t.TempDir(), "Xcode-11.0.0.app")

	mgr := newManager(t, base, &recordingRunner{}, false)

	_, err := mgr.Find(context.Background(), elsewhere)
	assert.Equal(t, outcome.KindInvalidPath, outcome.KindOf(err))
}

func TestActivePath(t *testing.T) {
	runner := &recordingRunner{activePath: "/Applications/Xcode-10.2.1.app/Contents/Developer"}
	mgr := newManager(t, t.TempDir(), runner, false)

	path, err := mgr.ActivePath(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/Applications/Xcode-10.2.1.app/Contents/Developer", path)
}
