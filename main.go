package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"xcv/internal/catalog"
	"xcv/internal/config"
	"xcv/internal/installer"
	"xcv/internal/outcome"
	"xcv/internal/run"
	"xcv/internal/selection"
	"xcv/internal/theme"
	"xcv/internal/updater"
	"xcv/internal/xcode"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Version is set during build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// One top-level operation per invocation; SIGINT aborts it. Placement is
	// atomic, so an abort mid-install never leaves a partial bundle visible.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "install":
		err = handleInstall(ctx, args)
	case "installed":
		err = handleInstalled(ctx)
	case "list":
		err = handleList(ctx)
	case "select":
		err = handleSelect(ctx, args)
	case "uninstall":
		err = handleUninstall(ctx, args)
	case "update":
		err = handleUpdate(ctx)
	case "selfupdate":
		err = handleSelfUpdate(ctx)
	case "version", "-v", "--version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		renderFailure(err)
	} else {
		switch command {
		case "install", "installed", "list", "select", "uninstall", "update":
			maybeNotifyUpdate(ctx)
		}
	}
	os.Exit(outcome.ExitCode(err))
}

// maybeNotifyUpdate prints a one-line hint when a newer xcv release exists.
// Best-effort and rate-limited; never delays the command by more than a few
// seconds and never turns a successful run into a failure.
func maybeNotifyUpdate(ctx context.Context) {
	if !stdoutIsTerminal() {
		return
	}

	cfg, err := config.Load()
	if err != nil {
		return
	}
	upd, err := updater.NewUpdater(cfg, Version)
	if err != nil || !upd.ShouldCheckForUpdate() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	release, err := upd.CheckForUpdate(ctx)
	if err != nil || release == nil {
		return
	}
	updater.ShowUpdateNotification(Version, release.Version())
}

// renderFailure is the single place failures become user-facing output.
func renderFailure(err error) {
	f := outcome.AsFailure(err)
	if f == nil {
		fmt.Println(theme.ErrorMessage(err.Error()))
		return
	}

	switch f.Kind {
	case outcome.KindAmbiguous:
		fmt.Println(theme.ErrorMessage(f.Message))
		fmt.Println(theme.Faint.Render("Matching versions:"))
		for _, c := range f.Candidates {
			fmt.Printf("  %s\n", theme.CurrentStyle.Render(c))
		}
		fmt.Println(theme.Faint.Render("Give a more specific version, e.g. a pre-release index."))

	case outcome.KindExternalProcess:
		fmt.Println(theme.ErrorMessage(f.Message))
		fmt.Printf("%s %s\n", theme.LabelStyle.Render("Command:"), theme.Code.Render(f.Command))
		if out := strings.TrimSpace(f.Stdout); out != "" {
			fmt.Println(theme.Faint.Render(out))
		}
		if errOut := strings.TrimSpace(f.Stderr); errOut != "" {
			fmt.Println(theme.Faint.Render(errOut))
		}

	case outcome.KindNoSelection:
		fmt.Println(theme.ErrorMessage(f.Message))
		fmt.Println(theme.Faint.Render("Pass a version argument, e.g. 'xcv select 11 beta 7'"))

	default:
		fmt.Println(theme.ErrorMessage(f.Message))
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println(theme.WarningMessage(fmt.Sprintf("Config unreadable, using defaults: %v", err)))
		return config.Default()
	}
	return cfg
}

func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

func stdinIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd())
}

func newDetector(cfg *config.Config, runner run.Runner) *xcode.Detector {
	paths := []string{cfg.InstallDir}
	paths = append(paths, cfg.SearchPaths...)
	return xcode.NewDetector(paths, runner)
}

func handleInstall(ctx context.Context, args []string) error {
	tokens := make([]string, 0, len(args))
	sourcePath := ""
	for i := 0; i < len(args); i++ {
		if args[i] == "--url" {
			if i+1 >= len(args) {
				return outcome.InvalidPath("--url requires a path")
			}
			sourcePath = args[i+1]
			i++
			continue
		}
		tokens = append(tokens, args[i])
	}

	token := strings.Join(tokens, " ")
	if token == "" {
		return outcome.NotFound("install requires a version, e.g. 'xcv install 11 beta 7'")
	}

	cfg := loadConfig()
	runner := run.NewRunner()
	interactive := stdoutIsTerminal()

	var req installer.Request
	if sourcePath != "" {
		v, err := xcode.ParseVersion(token)
		if err != nil {
			return err
		}
		req = installer.Request{Version: v, SourcePath: sourcePath}
	} else {
		cat := catalog.New(cfg)
		if cat.ShouldRefresh() {
			if err := refreshCatalog(ctx, cat, interactive); err != nil {
				return err
			}
		}

		entries, err := cat.Entries()
		if err != nil {
			return err
		}

		versions := make([]xcode.Version, len(entries))
		for i, e := range entries {
			versions[i] = e.Version
		}
		idx, err := xcode.Resolve(token, versions)
		if err != nil {
			return err
		}
		req = installer.Request{Version: entries[idx].Version, URL: entries[idx].URL}
	}

	fmt.Println(theme.Subtitle.Render(fmt.Sprintf("Installing Xcode %s", req.Version)))

	workDir := filepath.Join(os.TempDir(), "xcv-install")
	pipeline := installer.New(cfg.InstallDir, workDir, runner, interactive)

	if err := <-pipeline.Start(ctx, req); err != nil {
		return err
	}

	dest := filepath.Join(cfg.InstallDir, req.Version.BundleName())
	fmt.Println()
	fmt.Println(theme.SuccessBox.Render(theme.SuccessStyle.Padding(0, 2).Render("✓ Installation Complete!")))
	fmt.Println()
	fmt.Println(theme.LabelStyle.Render(fmt.Sprintf("Xcode %s installed to:", req.Version)))
	fmt.Printf("  %s\n", theme.PathStyle.Render(dest))
	fmt.Println()
	fmt.Println(theme.Faint.Render("Run ") + theme.Code.Render("xcv select "+req.Version.String()) + theme.Faint.Render(" to make it active"))

	return nil
}

func refreshCatalog(ctx context.Context, cat *catalog.Catalog, interactive bool) error {
	if !interactive {
		fmt.Println("Updating list of available versions...")
		return cat.Refresh(ctx)
	}

	return installer.WithSpinner("Updating list of available versions...", func() error {
		return cat.Refresh(ctx)
	})
}

func handleInstalled(ctx context.Context) error {
	cfg := loadConfig()
	runner := run.NewRunner()
	detector := newDetector(cfg, runner)

	installs, err := detector.FindAll(ctx)
	if err != nil {
		return outcome.IO(err, "scanning installed versions")
	}

	if len(installs) == 0 {
		fmt.Println(theme.WarningMessage("No Xcode versions installed."))
		fmt.Println(theme.Faint.Render("Run ") + theme.Code.Render("xcv install <version>") + theme.Faint.Render(" to install one"))
		return nil
	}

	active, _ := selection.NewManager(detector, runner, false).ActivePath(ctx)

	fmt.Println(theme.Title.Render("Installed Xcode Versions:"))
	fmt.Println()
	for _, inst := range installs {
		marker := "  "
		versionStr := inst.Version.String()
		if active != "" && strings.EqualFold(xcode.DeveloperDir(inst.Path), active) {
			marker = "→ "
			versionStr = theme.CurrentStyle.Render(versionStr)
		}
		fmt.Printf("%s%-18s %s\n", marker, versionStr, theme.PathStyle.Render(inst.Path))
	}

	return nil
}

func handleList(ctx context.Context) error {
	cfg := loadConfig()
	runner := run.NewRunner()

	cat := catalog.New(cfg)
	if cat.ShouldRefresh() {
		if err := refreshCatalog(ctx, cat, stdoutIsTerminal()); err != nil {
			return err
		}
	}

	entries, err := cat.Entries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println(theme.WarningMessage("No versions known. Run 'xcv update' to fetch the release list."))
		return nil
	}

	installs, err := newDetector(cfg, runner).FindAll(ctx)
	if err != nil {
		return outcome.IO(err, "scanning installed versions")
	}
	catalog.MarkInstalled(entries, installs)

	fmt.Println(theme.Title.Render("Available Xcode Versions:"))
	fmt.Println()
	for _, e := range entries {
		tag := ""
		if e.Installed {
			tag = " " + theme.InfoStyle.Render("[Installed]")
		}
		fmt.Printf("  %-22s %s%s\n", e.Version, theme.Faint.Render(e.Build), tag)
	}

	return nil
}

func handleSelect(ctx context.Context, args []string) error {
	printPath := false
	token := ""
	tokens := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "--print-path" {
			printPath = true
			continue
		}
		tokens = append(tokens, arg)
	}
	token = strings.Join(tokens, " ")

	cfg := loadConfig()
	runner := run.NewRunner()
	detector := newDetector(cfg, runner)
	mgr := selection.NewManager(detector, runner, stdinIsTerminal())

	if token == "" && printPath {
		path, err := mgr.ActivePath(ctx)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}

	target, err := mgr.Select(ctx, token)
	if err != nil {
		if outcome.KindOf(err) == outcome.KindExternalProcess {
			renderFailure(err)
			fmt.Println()
			fmt.Println(theme.WarningStyle.Render("Note: switching requires root privileges."))
			fmt.Println(theme.Faint.Render("Try: sudo xcv select " + token))
			os.Exit(1)
		}
		return err
	}

	fmt.Println(theme.SuccessMessage(fmt.Sprintf("Now using Xcode %s", target.Version)))
	if printPath {
		fmt.Println(xcode.DeveloperDir(target.Path))
	}

	return nil
}

func handleUninstall(ctx context.Context, args []string) error {
	token := strings.Join(args, " ")

	cfg := loadConfig()
	runner := run.NewRunner()
	detector := newDetector(cfg, runner)
	mgr := selection.NewManager(detector, runner, stdinIsTerminal())

	target, err := mgr.Find(ctx, token)
	if err != nil {
		return err
	}

	if stdinIsTerminal() {
		confirmed, err := confirmAction(
			fmt.Sprintf("Uninstall Xcode %s?", target.Version),
			fmt.Sprintf("Path: %s", target.Path),
		)
		if err != nil || !confirmed {
			fmt.Println(theme.WarningStyle.Render("Operation cancelled."))
			return nil
		}
	}

	wasActive := false
	if active, err := mgr.ActivePath(ctx); err == nil {
		wasActive = strings.EqualFold(active, xcode.DeveloperDir(target.Path))
	}

	if err := installer.Remove(*target); err != nil {
		return err
	}

	fmt.Println(theme.SuccessMessage(fmt.Sprintf("Uninstalled Xcode %s", target.Version)))
	if wasActive {
		fmt.Println(theme.WarningMessage("The removed copy was active."))
		fmt.Println(theme.Faint.Render("Run ") + theme.Code.Render("xcv select") + theme.Faint.Render(" to choose another version"))
	}

	return nil
}

func handleUpdate(ctx context.Context) error {
	cfg := loadConfig()
	cat := catalog.New(cfg)

	if err := refreshCatalog(ctx, cat, stdoutIsTerminal()); err != nil {
		return err
	}

	entries, err := cat.Entries()
	if err != nil {
		return err
	}

	fmt.Println(theme.SuccessMessage(fmt.Sprintf("Release list updated: %d versions known", len(entries))))
	if len(entries) > 0 {
		fmt.Printf("%s %s\n", theme.LabelStyle.Render("Latest:"), theme.CurrentStyle.Render(entries[0].Version.String()))
	}

	return nil
}

func handleSelfUpdate(ctx context.Context) error {
	cfg := loadConfig()

	if !cfg.UpdateConfig.Enabled {
		fmt.Println(theme.WarningStyle.Render("Updates are disabled in configuration."))
		fmt.Println(theme.Faint.Render("To enable, edit ~/.config/xcv/xcv.json and set update_config.enabled to true"))
		return nil
	}

	upd, err := updater.NewUpdater(cfg, Version)
	if err != nil {
		return outcome.IO(err, "initializing updater")
	}

	updater.ShowCheckingForUpdates()

	ctx, cancel := context.WithTimeout(ctx, updater.UpdateTimeout)
	defer cancel()

	release, err := upd.CheckForUpdate(ctx)
	if err != nil {
		return outcome.IO(err, "checking for updates")
	}

	if release == nil {
		updater.ShowAlreadyUpToDate(Version)
		return nil
	}

	action, err := upd.PromptForUpdate(release)
	if err != nil {
		fmt.Println(theme.WarningStyle.Render("Update cancelled."))
		return nil
	}

	if action != "update" {
		if action == "skip" {
			fmt.Println(theme.InfoMessage(fmt.Sprintf("Skipped version %s", release.Version())))
		} else {
			fmt.Println(theme.InfoMessage("Update postponed"))
		}
		return nil
	}

	updater.ShowDownloadingUpdate(release.Version())

	if err := upd.PerformUpdate(ctx, release); err != nil {
		return outcome.IO(err, "performing update")
	}

	updater.ShowUpdateSuccess(release.Version())
	return nil
}

// confirmAction shows a confirmation prompt
func confirmAction(title, description string) (bool, error) {
	var confirmed bool

	err := huh.NewConfirm().
		Title(theme.Subtitle.Render(title)).
		Description(theme.Faint.Render(description)).
		Affirmative(theme.SuccessStyle.Render("Yes")).
		Negative(theme.ErrorStyle.Render("No")).
		Value(&confirmed).
		Run()

	return confirmed, err
}

func printVersion() {
	fmt.Printf("%s %s %s\n",
		theme.Subtitle.Render("Xcode Version Manager (xcv)"),
		theme.Faint.Render("version"),
		theme.CurrentStyle.Render(Version))
}

func printUsage() {
	fmt.Println(theme.Subtitle.Render("Xcode Version Manager"))
	fmt.Println(theme.Faint.Render("Manage multiple Xcode installations on one machine"))
	fmt.Println()

	fmt.Println(theme.Title.Render("USAGE"))
	fmt.Println(theme.Faint.Render("  xcv <command> [arguments]"))
	fmt.Println()

	categoryStyle := theme.Subtitle
	commandStyle := theme.CommandStyle
	descStyle := theme.Faint

	fmt.Println(categoryStyle.Render("VERSIONS"))
	fmt.Printf("  %s                          %s\n",
		commandStyle.Render("list"),
		descStyle.Render("List all versions available to install"))
	fmt.Printf("  %s                     %s\n",
		commandStyle.Render("installed"),
		descStyle.Render("List installed versions"))
	fmt.Printf("  %s                        %s\n",
		commandStyle.Render("update"),
		descStyle.Render("Refresh the list of available versions"))
	fmt.Println()

	fmt.Println(categoryStyle.Render("INSTALLATION"))
	fmt.Printf("  %s %s  %s\n",
		commandStyle.Render("install"),
		descStyle.Render("<version> [--url <path>]"),
		descStyle.Render("Download and install a version"))
	fmt.Printf("  %s %s          %s\n",
		commandStyle.Render("uninstall"),
		descStyle.Render("<version>"),
		descStyle.Render("Remove an installed version"))
	fmt.Println()

	fmt.Println(categoryStyle.Render("SELECTION"))
	fmt.Printf("  %s %s %s\n",
		commandStyle.Render("select"),
		descStyle.Render("[<version-or-path>] [--print-path]"),
		descStyle.Render("Switch the active Xcode"))
	fmt.Println()

	fmt.Println(categoryStyle.Render("OTHER"))
	fmt.Printf("  %s                    %s\n",
		commandStyle.Render("selfupdate"),
		descStyle.Render("Update xcv itself"))
	fmt.Printf("  %s                       %s\n",
		commandStyle.Render("version"),
		descStyle.Render("Show version information"))
	fmt.Printf("  %s                          %s\n",
		commandStyle.Render("help"),
		descStyle.Render("Show this help message"))
	fmt.Println()

	fmt.Println(theme.Title.Render("EXAMPLES"))
	fmt.Println("  " + theme.Code.Render("xcv list") + "                     # Show what can be installed")
	fmt.Println("  " + theme.Code.Render("xcv install 11 beta 7") + "        # Install a pre-release")
	fmt.Println("  " + theme.Code.Render("xcv install 10.2.1") + "           # Install a final release")
	fmt.Println("  " + theme.Code.Render("xcv select") + "                   # Interactive switcher")
	fmt.Println("  " + theme.Code.Render("xcv select --print-path") + "      # Show the active developer dir")
	fmt.Println("  " + theme.Code.Render("xcv uninstall 10.2.1") + "         # Remove a version")
	fmt.Println()

	fmt.Println(theme.Faint.Italic(true).Render("Switching the active Xcode requires root privileges (sudo)."))
}
