package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/screentime/internal/output"
	"github.com/blackwell-systems/screentime/internal/tracker"
)

// stopTimeout bounds how long stop waits for the tracker to exit.
var stopTimeout = 10 * time.Second

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running tracker",
	Long: `Stop the tracker recorded in the PID file, whether it runs in the
background or in another terminal. The tracker finishes its current sample
before exiting.`,
	Example: `  screentime stop`,
	Args:    cobra.NoArgs,
	RunE:    runStop,
}

func init() {
	RootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	running, err := tracker.IsDaemonRunning(cfg.PIDFile)
	if err != nil {
		return fmt.Errorf("failed to check tracker status: %w", err)
	}
	if !running {
		fmt.Fprintln(out, "tracker is not running.")
		return nil
	}

	spinner := output.NewSpinner("Waiting for tracker to exit").WithElapsed()
	spinner.SetWriter(out)
	spinner.Start()

	err = tracker.StopDaemon(cfg.PIDFile, stopTimeout)
	if errors.Is(err, tracker.ErrNotRunning) {
		spinner.Stop()
		fmt.Fprintln(out, "tracker is not running.")
		return nil
	}
	if err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to stop tracker: %w", err)
	}
	spinner.StopWithMessage("tracking stopped.")
	return nil
}
