package updater

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/creativeprojects/go-selfupdate"

	"xcv/internal/theme"
)

// PromptForUpdate asks whether to apply an available release and returns the
// choice: "update", "skip" or "later". Skipping is persisted so the same
// release is not offered again.
func (u *Updater) PromptForUpdate(release *selfupdate.Release) (string, error) {
	description := fmt.Sprintf("Download size: %.1f MB\n\n%s",
		float64(release.AssetByteSize)/1024/1024,
		truncateChangelog(release.ReleaseNotes, 400))

	var action string
	err := huh.NewSelect[string]().
		Title(theme.Subtitle.Render(fmt.Sprintf("xcv %s is available (you have %s)", release.Version(), u.currentVersion))).
		Description(theme.Faint.Render(description)).
		Options(
			huh.NewOption(theme.SuccessStyle.Render("Update now"), "update"),
			huh.NewOption(theme.InfoStyle.Render("Skip this version"), "skip"),
			huh.NewOption(theme.WarningStyle.Render("Remind me later"), "later"),
		).
		Value(&action).
		Run()
	if err != nil {
		return "", err
	}

	if action == "skip" {
		if err := u.SkipVersion(release.Version()); err != nil {
			fmt.Println(theme.WarningMessage(fmt.Sprintf("Could not save skip preference: %v", err)))
		}
	}

	return action, nil
}

// ShowUpdateNotification prints the one-line hint emitted after a regular
// command when a newer release exists.
func ShowUpdateNotification(currentVersion, latestVersion string) {
	fmt.Printf("\n%s xcv %s is available (you have %s) %s\n",
		theme.InfoStyle.Render("ℹ"),
		theme.CurrentStyle.Render(latestVersion),
		theme.Faint.Render(currentVersion),
		theme.Faint.Render("— run 'xcv selfupdate'"))
}

func ShowUpdateSuccess(version string) {
	fmt.Println()
	fmt.Println(theme.SuccessBox.Render(theme.SuccessStyle.Padding(0, 2).Render("✓ Update Complete!")))
	fmt.Println()
	fmt.Printf("%s %s\n", theme.LabelStyle.Render("Now running:"), theme.CurrentStyle.Render(version))
	fmt.Println()
	fmt.Println(theme.Faint.Render("Restart your shell or run xcv again to use the new binary."))
}

func ShowAlreadyUpToDate(version string) {
	fmt.Println(theme.SuccessMessage(fmt.Sprintf("xcv %s is the latest version", version)))
}

func ShowCheckingForUpdates() {
	fmt.Println(theme.InfoStyle.Render("Checking for updates..."))
}

func ShowDownloadingUpdate(version string) {
	fmt.Println()
	fmt.Println(theme.InfoStyle.Render(fmt.Sprintf("Downloading xcv %s...", version)))
}

// truncateChangelog shortens release notes to fit the prompt, breaking on a
// line or word boundary where one falls in the second half.
func truncateChangelog(changelog string, maxLen int) string {
	changelog = strings.TrimSpace(changelog)
	if changelog == "" {
		return "See the release notes on GitHub for details."
	}
	if len(changelog) <= maxLen {
		return changelog
	}

	cut := changelog[:maxLen]
	if idx := strings.LastIndex(cut, "\n"); idx > maxLen/2 {
		cut = cut[:idx]
	} else if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
