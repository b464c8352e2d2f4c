package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/pillbox/internal/app"
	"github.com/nhle/pillbox/internal/model"
	"github.com/nhle/pillbox/internal/notify"
	"github.com/nhle/pillbox/internal/schedule"
	"github.com/nhle/pillbox/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := run(*configPath, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "pillbox: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, debug bool) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(debug)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating data directory %s: %w", dir, err)
		}
	}

	s, err := store.NewSQLiteStore(cfg.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("opening database %s: %w", cfg.DatabasePath, err)
	}
	defer s.Close()

	dispatcher := notify.NewDispatcher(time.Duration(cfg.Notify.TickSeconds)*time.Second, logger)
	defaults := cfg.Prefs.DefaultUserPrefs()
	planner := schedule.NewPlanner(s, dispatcher, schedule.SettingsFromConfig(cfg.Schedule), defaults, logger)

	root := app.New(s, planner, dispatcher, defaults, logger)
	program := tea.NewProgram(root, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

// newLogger builds the application logger. Logs go to a file next to
// the database rather than the terminal the TUI owns.
func newLogger(debug bool) (*zap.Logger, error) {
	logPath := filepath.Join(filepath.Dir(model.DefaultDatabasePath()), "pillbox.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}
	return cfg.Build()
}
