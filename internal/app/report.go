package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/screentime/internal/follow"
	"github.com/blackwell-systems/screentime/internal/output"
	"github.com/blackwell-systems/screentime/internal/report"
)

// now is the report clock; tests pin it.
var now = time.Now

var (
	dayFollow      bool
	weekFollow     bool
	weekDays       int
	followDebounce time.Duration

	reportDayCmd = &cobra.Command{
		Use:   "report_day",
		Short: "Show today's top applications",
		Long: `Show the five most used applications today, with a bar scaled to the
top entry. "Today" is the current calendar date in local time.

Totals count samples; they read as minutes at a 1-minute interval.`,
		Example: `  screentime report_day

  # Redraw whenever the tracker logs a sample
  screentime report_day --follow`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, report.Today(), dayFollow)
		},
	}

	reportWeekCmd = &cobra.Command{
		Use:   "report_week",
		Short: "Show the top applications of the last 7 days",
		Long: `Show the five most used applications over a rolling window that ends now
and starts exactly --days days earlier, both ends included.

Totals count samples; they read as minutes at a 1-minute interval.`,
		Example: `  screentime report_week

  # The last 30 days
  screentime report_week --days 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, report.LastNDays(weekDays), weekFollow)
		},
	}
)

func init() {
	for _, c := range []*cobra.Command{reportDayCmd, reportWeekCmd} {
		c.Flags().DurationVar(&followDebounce, "debounce", follow.DefaultDebounce, "with --follow, wait this long after a write before redrawing")
	}
	reportDayCmd.Flags().BoolVarP(&dayFollow, "follow", "f", false, "redraw the report whenever the usage log changes")

	reportWeekCmd.Flags().BoolVarP(&weekFollow, "follow", "f", false, "redraw the report whenever the usage log changes")
	reportWeekCmd.Flags().IntVar(&weekDays, "days", report.DefaultWeekDays, "length of the window in days")

	RootCmd.AddCommand(reportDayCmd)
	RootCmd.AddCommand(reportWeekCmd)
}

func runReport(cmd *cobra.Command, w report.Window, followLog bool) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("invalid --days: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())
	agg := report.New(openUsageLog(cfg, logger))
	out := cmd.OutOrStdout()

	render := func() error {
		r, err := agg.Aggregate(w, now())
		if err != nil {
			return fmt.Errorf("failed to build %s report: %w", w.Title(), err)
		}
		return output.RenderReport(out, r, output.ReportOptions{Notes: true})
	}

	if !followLog {
		return render()
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "following %s (Ctrl+C to stop)\n\n", cfg.LogFile)
	return follow.New(cfg.LogFile, render,
		follow.WithLogger(logger),
		follow.WithDebounce(followDebounce),
	).Run(ctx)
}
