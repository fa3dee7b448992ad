// Package outcome defines the typed failures every xcv component returns.
// Components never print; main renders the failure and picks the exit code.
package outcome

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure for rendering and exit-code mapping.
type Kind int

const (
	// KindUnknown covers errors that did not originate as a Failure.
	KindUnknown Kind = iota

	// KindNotFound means no catalog or installed entry matched the query.
	KindNotFound

	// KindAmbiguous means multiple entries matched equally well.
	KindAmbiguous

	// KindInvalidPath means an explicit path argument does not exist or is
	// not a valid Xcode bundle.
	KindInvalidPath

	// KindExternalProcess means a spawned process exited non-zero.
	KindExternalProcess

	// KindIO covers download and filesystem errors not tied to a process.
	KindIO

	// KindNoSelection means interactive selection was requested without a
	// usable input channel.
	KindNoSelection
)

// Failure is a tagged error carried up through every component boundary.
type Failure struct {
	Kind    Kind
	Message string

	// Tied candidates, set for KindAmbiguous.
	Candidates []string

	// External process diagnostics, set for KindExternalProcess.
	Command    string
	ExitStatus int
	Stdout     string
	Stderr     string

	cause error
}

func (f *Failure) Error() string {
	if f.Kind == KindAmbiguous && len(f.Candidates) > 0 {
		return f.Message + ": " + strings.Join(f.Candidates, ", ")
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.cause }

// NotFound reports that no entry matched the given token.
func NotFound(format string, args ...any) *Failure {
	return &Failure{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Ambiguous reports equally good matches. Candidates are reported in full
// rather than silently picking one.
func Ambiguous(message string, candidates []string) *Failure {
	return &Failure{Kind: KindAmbiguous, Message: message, Candidates: candidates}
}

// InvalidPath reports a path argument that is not a usable Xcode bundle.
func InvalidPath(format string, args ...any) *Failure {
	return &Failure{Kind: KindInvalidPath, Message: fmt.Sprintf(format, args...)}
}

// External reports a spawned process that exited non-zero, keeping its
// command line and captured output for verbatim rendering.
func External(command string, exitStatus int, stdout, stderr string) *Failure {
	return &Failure{
		Kind:       KindExternalProcess,
		Message:    fmt.Sprintf("%s exited with status %d", command, exitStatus),
		Command:    command,
		ExitStatus: exitStatus,
		Stdout:     stdout,
		Stderr:     stderr,
	}
}

// IO wraps a download or filesystem error.
func IO(err error, format string, args ...any) *Failure {
	return &Failure{
		Kind:    KindIO,
		Message: fmt.Sprintf(format, args...) + ": " + err.Error(),
		cause:   err,
	}
}

// NoSelection reports an interactive prompt requested without a terminal.
func NoSelection(format string, args ...any) *Failure {
	return &Failure{Kind: KindNoSelection, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from any error chain.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// AsFailure returns the Failure in err's chain, or nil.
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return nil
}

// ExitCode maps an operation result to the process exit status: 0 for
// success, 1 for every failure kind.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
