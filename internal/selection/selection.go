// Package selection switches the system-wide active Xcode. It is the only
// component that moves the active-toolchain pointer, and it always resolves
// targets against a fresh snapshot of the installed set.
package selection

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"

	"xcv/internal/outcome"
	"xcv/internal/run"
	"xcv/internal/theme"
	"xcv/internal/xcode"
)

// Manager resolves selection targets and updates the active pointer.
type Manager struct {
	detector    *xcode.Detector
	runner      run.Runner
	interactive bool
}

// NewManager creates a selection manager. interactive reports whether stdin
// is a terminal; without one, prompting fails instead of hanging.
func NewManager(detector *xcode.Detector, runner run.Runner, interactive bool) *Manager {
	return &Manager{detector: detector, runner: runner, interactive: interactive}
}

// ActivePath returns the current active developer directory.
func (m *Manager) ActivePath(ctx context.Context) (string, error) {
	res, err := m.runner.Run(ctx, "xcode-select", "--print-path")
	if err != nil {
		return "", outcome.IO(err, "running xcode-select")
	}
	if res.ExitStatus != 0 {
		return "", outcome.External(run.CommandLine("xcode-select", "--print-path"), res.ExitStatus, res.Stdout, res.Stderr)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Select resolves the target and switches the active pointer to it. An empty
// token selects interactively. The chosen install is returned so the caller
// can render the result.
func (m *Manager) Select(ctx context.Context, token string) (*xcode.Install, error) {
	target, err := m.Find(ctx, token)
	if err != nil {
		return nil, err
	}

	dev := xcode.DeveloperDir(target.Path)
	res, err := m.runner.Run(ctx, "xcode-select", "--switch", dev)
	if err != nil {
		return nil, outcome.IO(err, "running xcode-select")
	}
	if res.ExitStatus != 0 {
		return nil, outcome.External(run.CommandLine("xcode-select", "--switch", dev), res.ExitStatus, res.Stdout, res.Stderr)
	}

	return target, nil
}

// Find resolves a token (version, path, or empty for interactive choice)
// against the installed set only; catalog entries that are not installed are
// never valid targets.
func (m *Manager) Find(ctx context.Context, token string) (*xcode.Install, error) {
	installs, err := m.detector.FindAll(ctx)
	if err != nil {
		return nil, outcome.IO(err, "scanning installed versions")
	}

	if token == "" {
		return m.choose(installs)
	}

	q, err := xcode.ParseQuery(token)
	if err != nil {
		return nil, err
	}

	if q.Path != "" {
		if !m.detector.IsValidBundle(q.Path) {
			return nil, outcome.InvalidPath("%s is not an installed Xcode bundle", q.Path)
		}
		clean := filepath.Clean(q.Path)
		for i := range installs {
			if strings.EqualFold(installs[i].Path, clean) {
				return &installs[i], nil
			}
		}
		return nil, outcome.InvalidPath("%s is not under a known install location", q.Path)
	}

	versions := make([]xcode.Version, len(installs))
	for i, inst := range installs {
		versions[i] = inst.Version
	}
	idx, err := xcode.Resolve(token, versions)
	if err != nil {
		return nil, err
	}
	return &installs[idx], nil
}

// choose prompts for one install, sorted by version ascending.
func (m *Manager) choose(installs []xcode.Install) (*xcode.Install, error) {
	if !m.interactive {
		return nil, outcome.NoSelection("no version given and standard input is not a terminal")
	}
	if len(installs) == 0 {
		return nil, outcome.NotFound("no Xcode versions installed")
	}

	options := make([]huh.Option[int], len(installs))
	for i, inst := range installs {
		label := fmt.Sprintf("%s %s",
			theme.CurrentStyle.Render(inst.Version.String()),
			theme.Faint.Render(inst.Path))
		options[i] = huh.NewOption(label, i)
	}

	var selected int
	err := huh.NewSelect[int]().
		Title(theme.Subtitle.Render("Select Xcode Version")).
		Description(theme.Faint.Render("Use arrow keys to navigate, Enter to select")).
		Options(options...).
		Value(&selected).
		Run()
	if err != nil {
		return nil, outcome.NoSelection("selection cancelled: %v", err)
	}

	return &installs[selected], nil
}
