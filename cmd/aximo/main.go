// Package main is the entry point for the Aximo model catalog TUI.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/aximo-tui/internal/app"
	"github.com/j-veylop/aximo-tui/internal/config"
	"github.com/j-veylop/aximo-tui/internal/logger"
	"github.com/j-veylop/aximo-tui/internal/services"
	"github.com/j-veylop/aximo-tui/internal/session"
	"github.com/j-veylop/aximo-tui/internal/ui/tabs/activity"
	"github.com/j-veylop/aximo-tui/internal/ui/tabs/browse"
	"github.com/j-veylop/aximo-tui/internal/ui/tabs/dashboard"
	"github.com/j-veylop/aximo-tui/internal/ui/tabs/info"
	"github.com/j-veylop/aximo-tui/internal/ui/tabs/reports"
	"github.com/j-veylop/aximo-tui/internal/version"
)

func main() {
	var err error

	switch arg(1) {
	case "-v", "--version":
		fmt.Println(version.Info())
		return
	case "-h", "--help":
		printUsage(os.Stdout)
		return
	case "login":
		err = login(arg(2))
	case "logout":
		err = logout()
	case "":
		err = run()
	default:
		printUsage(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func arg(i int) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return ""
}

// login validates a bearer token and saves it for later runs.
func login(token string) error {
	if token == "" {
		return fmt.Errorf("usage: aximo login <token>")
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	sess, err := session.Parse(token)
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if sess.Expired(time.Now()) {
		return fmt.Errorf("token expired at %s", sess.ExpiresAt.Local().Format(time.RFC1123))
	}

	if err := config.SaveTokenFile(cfg.TokenPath, token); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", sess.DisplayName())
	return nil
}

func logout() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.SaveTokenFile(cfg.TokenPath, ""); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCloser, err := logger.Init(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	logger.Info("starting", "version", version.GetVersion(), "snapshot", cfg.UsesSnapshot())

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	state := app.NewState()
	model := app.NewModel(svcManager, state)

	// Order must match the app.TabID constants.
	model.SetTabs([]app.Tab{
		browse.New(state),
		dashboard.New(state),
		activity.New(state),
		reports.New(state),
		info.New(state, cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// printUsage prints the command-line usage information.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Aximo - browse, buy and publish AI models from the terminal

Usage:
  aximo [flags]
  aximo login <token>   Save a bearer token for later runs
  aximo logout          Forget the saved token

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-5             Switch tabs (Models, Dashboard, Activity, Reports, Info)
  Tab/Shift+Tab   Navigate between tabs
  /               Search models
  f / u / s / c   Framework filter, use case filter, sort, clear
  b               Buy the selected model
  r               Refresh the catalog
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  AXIMO_API_URL             Backend base URL
  AXIMO_TOKEN               Bearer token (overrides the token file)
  AXIMO_TOKEN_FILE          Where 'aximo login' saves the token
  AXIMO_SNAPSHOT_PATH       Read the catalog from a JSON file instead of the API
  DATABASE_PATH             SQLite cache path
  EXPORT_DIR                Directory for catalog exports
  CATALOG_REFRESH_INTERVAL  Catalog polling interval (default: 60s)
  API_RATE_LIMIT            Requests per second to the backend
  NOTIFY_NEW_MODELS         Desktop notification for new models (default: true)
  LOG_PATH, LOG_LEVEL       Log file and level

Configuration:
  .env files are read from the current directory, ~/.config/aximo/.env
  and ~/.aximo/.env.`)
}
