// Package run abstracts external process execution behind a small capability
// interface so callers can map process failures without spawning anything in
// tests.
package run

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Result captures one finished process.
type Result struct {
	ExitStatus int
	Stdout     string
	Stderr     string
}

// Runner executes a command and captures its output. A non-zero exit status
// is reported through Result, not through the error; the error is reserved
// for failures to run the command at all (missing binary, cancelled context).
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)

	// RunIn runs the command with the given working directory.
	RunIn(ctx context.Context, dir string, name string, args ...string) (Result, error)
}

type execRunner struct{}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner {
	return execRunner{}
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	return r.RunIn(ctx, "", name, args...)
}

func (execRunner) RunIn(ctx context.Context, dir string, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitStatus = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}

	return res, nil
}

// CommandLine renders a command and its arguments for diagnostics.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
