package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/screentime/internal/config"
	"github.com/blackwell-systems/screentime/internal/logging"
	"github.com/blackwell-systems/screentime/internal/store"
	"github.com/blackwell-systems/screentime/internal/usagelog"
)

var (
	configPath string
	logPath    string
	logLevel   string

	// RootCmd is the root command for screentime
	RootCmd = &cobra.Command{
		Use:   "screentime",
		Short: "Track which applications are running and report screen time",
		Long: `screentime samples the running applications at a fixed interval and
appends them to a CSV usage log. Reports rank the most used applications
for today or the last few days.

When nothing changes for a number of consecutive samples the user is
considered idle and the sample is logged as IDLE instead.

Quick Start:
  1. screentime start            # sample every minute; type 'stop' to end
  2. screentime report_day       # today's top applications
  3. screentime report_week      # the last 7 days

Report totals count samples. They read as minutes only at the default
1-minute interval.

Files (default ~/.screentime, override with SCREENTIME_HOME):
  usage_logs.csv   the usage log
  sessions.db      tracking session history
  tracker.pid      PID of the running tracker
  tracker.log      output of a background tracker`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/screentime/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&logPath, "log", "", "usage log path (default: ~/.screentime/usage_logs.csv)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "diagnostics level: debug, info, warn, error")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig loads the configuration and applies the global flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logPath != "" {
		cfg.LogFile = logPath
	}
	if logLevel != "" {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return nil, err
		}
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// newLogger returns the diagnostics logger for cfg, writing to w.
func newLogger(cfg *config.Config, w io.Writer) logging.Logger {
	return logging.New(w, cfg.Level())
}

// openUsageLog returns the usage log named by cfg.
func openUsageLog(cfg *config.Config, logger logging.Logger) *usagelog.Log {
	return usagelog.New(cfg.LogFile, usagelog.WithLogger(logger))
}

// openStore opens the session database and creates its schema if needed.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.New(cfg.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create session schema: %w", err)
	}
	return st, nil
}

// fileSize returns the size of path, or -1 if it does not exist.
func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// commandContext returns cmd's context, or Background when the command was
// invoked without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
