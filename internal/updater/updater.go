// Package updater keeps the xcv binary itself current from GitHub releases.
// It is unrelated to managing Xcode versions; "xcv update" refreshes the
// release catalog, "xcv selfupdate" lands here.
package updater

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/creativeprojects/go-selfupdate"

	"xcv/internal/config"
)

const (
	releaseSlug = "xcv-tool/xcv"

	// CheckInterval rate-limits automatic update checks.
	CheckInterval = 24 * time.Hour

	// UpdateTimeout bounds the whole check-and-apply flow.
	UpdateTimeout = 5 * time.Minute
)

// Updater checks for and applies new xcv releases.
type Updater struct {
	cfg            *config.Config
	currentVersion string
	engine         *selfupdate.Updater
}

// NewUpdater builds an updater that validates downloaded assets against the
// release's published SHA256SUMS.
func NewUpdater(cfg *config.Config, version string) (*Updater, error) {
	engine, err := selfupdate.NewUpdater(selfupdate.Config{
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: "SHA256SUMS.txt"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating update engine: %w", err)
	}

	return &Updater{
		cfg:            cfg,
		currentVersion: strings.TrimPrefix(version, "v"),
		engine:         engine,
	}, nil
}

// ShouldCheckForUpdate reports whether an automatic check is due.
func (u *Updater) ShouldCheckForUpdate() bool {
	uc := u.cfg.UpdateConfig
	if !uc.Enabled || !uc.AutoCheck {
		return false
	}
	return time.Since(uc.LastCheck) >= CheckInterval
}

// CheckForUpdate queries the release feed. It returns nil when the running
// binary is current or the user skipped the latest version.
func (u *Updater) CheckForUpdate(ctx context.Context) (*selfupdate.Release, error) {
	latest, found, err := u.engine.DetectLatest(ctx, selfupdate.ParseSlug(releaseSlug))
	if err != nil {
		return nil, fmt.Errorf("querying releases: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no releases published for %s", releaseSlug)
	}

	u.cfg.UpdateConfig.LastCheck = time.Now()
	if err := u.cfg.Save(); err != nil {
		fmt.Printf("Warning: could not record the update check: %v\n", err)
	}

	if latest.LessOrEqual(u.currentVersion) {
		return nil, nil
	}
	if u.cfg.UpdateConfig.SkipVersion == latest.Version() {
		return nil, nil
	}

	return latest, nil
}

// PerformUpdate swaps the running executable for the release asset. The old
// binary is kept next to it until the swap succeeds and restored on failure.
func (u *Updater) PerformUpdate(ctx context.Context, release *selfupdate.Release) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	backup := exe + ".backup"
	if err := copyFile(exe, backup); err != nil {
		return fmt.Errorf("backing up executable: %w", err)
	}
	defer os.Remove(backup)

	if err := selfupdate.UpdateTo(ctx, release.AssetURL, release.AssetName, exe); err != nil {
		if restoreErr := os.Rename(backup, exe); restoreErr != nil {
			return fmt.Errorf("update failed and the previous binary could not be restored (%v): %w", restoreErr, err)
		}
		return fmt.Errorf("update failed, previous binary restored: %w", err)
	}

	return nil
}

// SkipVersion records that the user declined this release.
func (u *Updater) SkipVersion(version string) error {
	u.cfg.UpdateConfig.SkipVersion = version
	return u.cfg.Save()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
