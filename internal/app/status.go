package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/screentime/internal/output"
	"github.com/blackwell-systems/screentime/internal/store"
	"github.com/blackwell-systems/screentime/internal/tracker"
)

var (
	statusSessions int

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show tracker status and recent sessions",
		Long: `Display whether a tracker is running, where the usage log lives and how
large it is, and the most recent tracking sessions with their sample and
error counts.`,
		Example: `  screentime status

  # Show the last 20 sessions
  screentime status -n 20`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
)

func init() {
	statusCmd.Flags().IntVarP(&statusSessions, "sessions", "n", 5, "number of recent sessions to list")

	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	running, err := tracker.IsDaemonRunning(cfg.PIDFile)
	if err != nil {
		return fmt.Errorf("failed to check tracker status: %w", err)
	}

	st := output.Status{
		Running: running,
		LogPath: cfg.LogFile,
		Now:     time.Now(),
	}
	if running {
		if st.PID, err = tracker.ReadPID(cfg.PIDFile); err != nil {
			return fmt.Errorf("failed to read PID file: %w", err)
		}
	}

	if st.LogSize, err = fileSize(cfg.LogFile); err != nil {
		return fmt.Errorf("failed to stat usage log: %w", err)
	}

	if st.Sessions, st.TotalTicks, err = recentSessions(cfg.SessionDB, statusSessions); err != nil {
		return err
	}

	return output.RenderStatus(cmd.OutOrStdout(), st)
}

// recentSessions reads session history and the all-time sample count
// without creating the database.
func recentSessions(dbPath string, limit int) ([]*store.Session, int, error) {
	size, err := fileSize(dbPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat session database: %w", err)
	}
	if size < 0 {
		return nil, 0, nil
	}

	db, err := store.New(dbPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open session database: %w", err)
	}
	defer db.Close()

	sessions, err := db.ListSessions(limit)
	if errors.Is(err, store.ErrNotInitialized) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	total, err := db.TotalTicks()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return sessions, total, nil
}
