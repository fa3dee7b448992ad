// Package installer drives the ordered stages of installing one Xcode
// version: resolve the source, fetch, unpack, verify, place. Placement is the
// only stage that mutates the installed set, and it is atomic, so a failed or
// aborted run never leaves a partial installation visible.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"xcv/internal/outcome"
	"xcv/internal/run"
	"xcv/internal/xcode"
)

// Stage is one ordered step of an install run.
type Stage int

const (
	StageResolvingSource Stage = iota
	StageFetching
	StageUnpacking
	StageVerifying
	StagePlacing
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageResolvingSource:
		return "resolving source"
	case StageFetching:
		return "fetching"
	case StageUnpacking:
		return "unpacking"
	case StageVerifying:
		return "verifying"
	case StagePlacing:
		return "placing"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// Request describes one install attempt. Either URL (a resolved catalog
// download) or SourcePath (an explicit local archive, which skips fetching)
// must be set.
type Request struct {
	Version    xcode.Version
	URL        string
	SourcePath string
}

// Pipeline installs Xcode versions. At most one run may be active per
// Pipeline, and a file lock on the work directory keeps concurrent processes
// from unpacking over each other.
type Pipeline struct {
	installDir  string
	workDir     string
	runner      run.Runner
	interactive bool
	active      atomic.Bool
}

// New creates a pipeline placing bundles into installDir and staging
// intermediate artifacts under workDir.
func New(installDir, workDir string, runner run.Runner, interactive bool) *Pipeline {
	return &Pipeline{
		installDir:  installDir,
		workDir:     workDir,
		runner:      runner,
		interactive: interactive,
	}
}

// Start begins an asynchronous install and returns the channel delivering
// its single outcome. The caller awaits the channel (or its context) and
// terminates; there is no multi-command concurrency within one process.
func (p *Pipeline) Start(ctx context.Context, req Request) <-chan error {
	done := make(chan error, 1)

	if !p.active.CompareAndSwap(false, true) {
		done <- outcome.IO(fmt.Errorf("pipeline busy"), "an install is already running")
		return done
	}

	go func() {
		defer p.active.Store(false)
		done <- p.install(ctx, req)
	}()

	return done
}

func (p *Pipeline) install(ctx context.Context, req Request) error {
	// Resolving source.
	dest := filepath.Join(p.installDir, req.Version.BundleName())
	if bundleUsable(dest) {
		// Already fully installed; retrying is a no-op.
		return nil
	}

	archive := ""
	switch {
	case req.SourcePath != "":
		info, err := os.Stat(req.SourcePath)
		if err != nil || info.IsDir() {
			return outcome.InvalidPath("%s: resolving source: not a readable archive", req.SourcePath)
		}
		archive = req.SourcePath
	case req.URL != "":
		// Fetched below.
	default:
		return outcome.NotFound("resolving source: no download available for Xcode %s", req.Version)
	}

	if err := os.MkdirAll(p.workDir, 0755); err != nil {
		return outcome.IO(err, "resolving source: creating work directory")
	}

	// One unpacking run per machine; placement stays atomic regardless.
	lock := flock.New(filepath.Join(p.workDir, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return outcome.IO(err, "resolving source: locking work directory")
	}
	if !locked {
		return outcome.IO(fmt.Errorf("work directory locked"), "another xcv install is in progress")
	}
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return outcome.IO(err, "install aborted")
	}

	// Fetching.
	if archive == "" {
		archive = filepath.Join(p.workDir, archiveName(req))
		if err := Download(ctx, req.URL, archive, p.interactive); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return outcome.IO(err, "install aborted")
	}

	// Unpacking.
	staging := filepath.Join(p.workDir, "staging-"+req.Version.BundleName())
	if err := os.RemoveAll(staging); err != nil {
		return outcome.IO(err, "unpacking: clearing staging directory")
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return outcome.IO(err, "unpacking: creating staging directory")
	}
	defer os.RemoveAll(staging) // disk hygiene only; correctness never depends on it

	app, err := p.unpack(ctx, archive, staging)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return outcome.IO(err, "install aborted")
	}

	// Verifying.
	if err := p.verify(ctx, app); err != nil {
		return err
	}

	// Placing. The installed set may have changed while we were suspended on
	// network or process I/O, so re-check the destination immediately before
	// the atomic swap.
	if err := ctx.Err(); err != nil {
		return outcome.IO(err, "install aborted")
	}
	if bundleUsable(dest) {
		return nil
	}
	if _, err := os.Stat(dest); err == nil {
		return outcome.IO(fmt.Errorf("%s already exists", dest), "placing")
	}
	if err := os.Rename(app, dest); err != nil {
		return outcome.IO(err, "placing")
	}

	return nil
}

// unpack expands the archive into the staging directory via xip and returns
// the extracted bundle path.
func (p *Pipeline) unpack(ctx context.Context, archive, staging string) (string, error) {
	res, err := p.runner.RunIn(ctx, staging, "xip", "--expand", archive)
	if err != nil {
		return "", outcome.IO(err, "unpacking: running xip")
	}
	if res.ExitStatus != 0 {
		return "", outcome.External(run.CommandLine("xip", "--expand", archive), res.ExitStatus, res.Stdout, res.Stderr)
	}

	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", outcome.IO(err, "unpacking: reading staging directory")
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasSuffix(entry.Name(), ".app") {
			return filepath.Join(staging, entry.Name()), nil
		}
	}

	return "", outcome.IO(fmt.Errorf("no .app bundle in archive"), "unpacking")
}

// verify checks the code signature and the bundle layout of the unpacked
// copy before it becomes visible.
func (p *Pipeline) verify(ctx context.Context, app string) error {
	res, err := p.runner.Run(ctx, "codesign", "--verify", "--deep", app)
	if err != nil {
		return outcome.IO(err, "verifying: running codesign")
	}
	if res.ExitStatus != 0 {
		return outcome.External(run.CommandLine("codesign", "--verify", "--deep", app), res.ExitStatus, res.Stdout, res.Stderr)
	}

	dev := filepath.Join(app, "Contents", "Developer")
	if info, err := os.Stat(dev); err != nil || !info.IsDir() {
		return outcome.IO(fmt.Errorf("missing Contents/Developer"), "verifying: unexpected bundle layout")
	}

	return nil
}

// bundleUsable reports whether dest holds a complete installed bundle.
func bundleUsable(dest string) bool {
	info, err := os.Stat(filepath.Join(dest, "Contents", "Developer"))
	return err == nil && info.IsDir()
}

func archiveName(req Request) string {
	if base := filepath.Base(req.URL); base != "." && base != "/" && base != "" {
		return base
	}
	return strings.ReplaceAll(req.Version.BundleName(), ".app", ".xip")
}
