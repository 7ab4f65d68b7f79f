package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/screentime/internal/config"
	"github.com/blackwell-systems/screentime/internal/errs"
	"github.com/blackwell-systems/screentime/internal/logging"
	"github.com/blackwell-systems/screentime/internal/output"
	"github.com/blackwell-systems/screentime/internal/snapshot"
	"github.com/blackwell-systems/screentime/internal/tracker"
)

var (
	startDaemon      bool
	startDaemonChild bool

	startCmd = &cobra.Command{
		Use:   "start [interval] [idle] [live]",
		Short: "Start tracking application usage",
		Long: `Start sampling running applications and appending them to the usage log.

Arguments (all optional, in order):
  interval   minutes between samples (default 1)
  idle       unchanged samples before the user counts as idle (default 5)
  live       'true' prints today's report after every sample (default false)

Invalid or non-positive numbers fall back to the defaults with a warning.
Defaults can also be set in the config file or with SCREENTIME_INTERVAL,
SCREENTIME_IDLE_THRESHOLD and SCREENTIME_LIVE_REPORT.

Every sample logs one row per application. Report totals therefore count
samples, which equal minutes only with a 1-minute interval.

In the foreground, type 'stop' or press Ctrl+C to end tracking. A tracker
in another terminal or in the background is stopped with 'screentime stop'.`,
		Example: `  # Sample every minute, idle after 5 unchanged samples
  screentime start

  # Sample every 2 minutes, idle after 10, with a live report
  screentime start 2 10 true

  # Run in the background
  screentime start --daemon`,
		Args: cobra.MaximumNArgs(3),
		RunE: runStart,
	}
)

func init() {
	startCmd.Flags().BoolVar(&startDaemon, "daemon", false, "run as background process")
	startCmd.Flags().BoolVar(&startDaemonChild, "daemon-child", false, "internal flag for daemon child process")

	// Hide the internal daemon-child flag from help
	startCmd.Flags().MarkHidden("daemon-child")

	RootCmd.AddCommand(startCmd)
}

// parseStartArgs applies the positional arguments over the configured
// defaults. Rejected values come back as *errs.ArgumentError warnings.
func parseStartArgs(args []string, cfg *config.Config) (tracker.Options, []error) {
	opts := tracker.Options{
		Interval:      time.Duration(cfg.IntervalMinutes) * time.Minute,
		IdleThreshold: cfg.IdleThreshold,
		LiveReport:    cfg.LiveReport,
	}
	var warnings []error

	if len(args) > 0 {
		if n, err := parsePositive(args[0]); err != nil {
			warnings = append(warnings, &errs.ArgumentError{
				Name: "interval", Value: args[0], Default: strconv.Itoa(cfg.IntervalMinutes), Err: err,
			})
		} else {
			opts.Interval = time.Duration(n) * time.Minute
		}
	}

	if len(args) > 1 {
		if n, err := parsePositive(args[1]); err != nil {
			warnings = append(warnings, &errs.ArgumentError{
				Name: "idle threshold", Value: args[1], Default: strconv.Itoa(cfg.IdleThreshold), Err: err,
			})
		} else {
			opts.IdleThreshold = n
		}
	}

	if len(args) > 2 {
		opts.LiveReport = strings.EqualFold(args[2], "true")
	}

	return opts, warnings
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return n, nil
}

// childArgs are the resolved settings handed to the background process.
func childArgs(opts tracker.Options, cfg *config.Config) []string {
	args := []string{
		"start",
		strconv.Itoa(int(opts.Interval / time.Minute)),
		strconv.Itoa(opts.IdleThreshold),
		strconv.FormatBool(opts.LiveReport),
		"--log", cfg.LogFile,
		"--log-level", cfg.LogLevel,
	}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return args
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, warnings := parseStartArgs(args, cfg)
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
	}

	if startDaemon {
		return startTrackerDaemon(cmd.OutOrStdout(), opts, cfg)
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())

	if startDaemonChild {
		s, cleanup := newSession(cfg, opts, logger, io.Discard)
		defer cleanup()
		return tracker.RunDaemon(commandContext(cmd), s, cfg.PIDFile)
	}

	return runForeground(cmd, cfg, opts, logger)
}

// newSession builds a tracking session over the host process table. The
// session history is best effort: without it tracking still runs.
func newSession(cfg *config.Config, opts tracker.Options, logger logging.Logger, live io.Writer) (*tracker.Session, func()) {
	sessionOpts := []tracker.Option{
		tracker.WithLogger(logger),
		tracker.WithLiveOutput(live),
		tracker.WithClock(now),
	}

	cleanup := func() {}
	st, err := openStore(cfg)
	if err != nil {
		logger.Warn("session history disabled", "error", err)
	} else {
		sessionOpts = append(sessionOpts, tracker.WithRecorder(st))
		cleanup = func() { st.Close() }
	}

	s := tracker.New(snapshot.NewProcessSource(), openUsageLog(cfg, logger), opts, sessionOpts...)
	return s, cleanup
}

func startTrackerDaemon(out io.Writer, opts tracker.Options, cfg *config.Config) error {
	spinner := output.NewSpinner("Starting tracker...")
	spinner.SetWriter(out)
	spinner.Start()

	pid, err := tracker.StartDaemon(cfg.PIDFile, cfg.DaemonLog, childArgs(opts, cfg))
	if err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start tracker: %w", err)
	}
	spinner.StopWithMessage("✓ Tracker started")

	fmt.Fprintf(out, "\nTracking in the background (PID %d)\n", pid)
	fmt.Fprintf(out, "  Usage log: %s\n", cfg.LogFile)
	fmt.Fprintf(out, "  Tracker log: %s\n", cfg.DaemonLog)
	fmt.Fprintf(out, "\nTo stop: screentime stop\n")
	return nil
}

func runForeground(cmd *cobra.Command, cfg *config.Config, opts tracker.Options, logger logging.Logger) error {
	if err := tracker.ClaimPIDFile(cfg.PIDFile, os.Getpid()); err != nil {
		if errors.Is(err, tracker.ErrAlreadyRunning) {
			return fmt.Errorf("%w; run 'screentime stop' first", err)
		}
		return err
	}
	defer func() {
		if err := tracker.RemovePIDFile(cfg.PIDFile); err != nil {
			logger.Warn("failed to remove PID file", "error", err)
		}
	}()

	out := cmd.OutOrStdout()
	s, cleanup := newSession(cfg, opts, logger, out)
	defer cleanup()

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	fmt.Fprintln(out, "tracking started....(type 'stop' to end)")
	go tracker.ListenForStop(ctx, cmd.InOrStdin(), s.Stop)

	if err := s.Run(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "tracking stopped.")
	return nil
}
