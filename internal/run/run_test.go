package run

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLine(t *testing.T) {
	assert.Equal(t, "xip", CommandLine("xip"))
	assert.Equal(t, "xip --expand a.xip", CommandLine("xip", "--expand", "a.xip"))
}

func TestRunner_CapturesOutput(t *testing.T) {
	r := NewRunner()

	res, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitStatus)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestRunner_NonZeroExitIsNotAnError(t *testing.T) {
	r := NewRunner()

	res, err := r.Run(context.Background(), "sh", "-c", "echo failing >&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitStatus)
	assert.Equal(t, "failing\n", res.Stderr)
}

func TestRunner_MissingBinary(t *testing.T) {
	r := NewRunner()

	_, err := r.Run(context.Background(), "definitely-not-a-real-binary-xcv")
	assert.Error(t, err)
}

func TestRunner_RunIn(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner()

	res, err := r.RunIn(context.Background(), dir, "pwd")
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, dir)
}
