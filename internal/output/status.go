package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/blackwell-systems/screentime/internal/store"
)

// Status describes the tracker as shown by `screentime status`.
type Status struct {
	Running bool
	PID     int
	LogPath string
	// LogSize is -1 when the log does not exist yet.
	LogSize int64
	// TotalTicks sums samples over every recorded session.
	TotalTicks int
	Sessions   []*store.Session
	Now        time.Time
}

// FormatStatus returns the status summary followed by a session table.
func FormatStatus(st Status, color bool) string {
	var sb strings.Builder

	state := colorize(color, colorGray, "stopped")
	if st.Running {
		state = colorize(color, colorGreen, fmt.Sprintf("running (PID %d)", st.PID))
	}
	sb.WriteString(fmt.Sprintf("%-10s %s\n", "Tracker:", state))

	size := "not created yet"
	if st.LogSize >= 0 {
		size = humanize.Bytes(uint64(st.LogSize))
	}
	sb.WriteString(fmt.Sprintf("%-10s %s (%s)\n", "Log:", st.LogPath, size))

	if len(st.Sessions) == 0 {
		sb.WriteString("\nNo tracking sessions recorded.\n")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("%-10s %s\n", "Samples:", humanize.Comma(int64(st.TotalTicks))))

	livePID := 0
	if st.Running {
		livePID = st.PID
	}
	sb.WriteString("\n")
	sb.WriteString(FormatSessionTable(st.Sessions, livePID, st.Now, color))
	return sb.String()
}

// RenderStatus writes the status summary to w.
func RenderStatus(w io.Writer, st Status) error {
	_, err := io.WriteString(w, FormatStatus(st, colorFor(w)))
	return err
}

// FormatSessionTable renders sessions in the order given. An unfinished
// session shows as running only when livePID is its process; otherwise its
// tracker exited without recording the end and it shows as not stopped.
func FormatSessionTable(sessions []*store.Session, livePID int, now time.Time, color bool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-8s %-16s %-10s %-9s %-6s %-6s %-8s %s\n",
		"Session", "Started", "Duration", "Interval", "Ticks", "Idle", "Records", "Errors"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, s := range sessions {
		var duration string
		switch {
		case s.Ended():
			duration = formatDuration(s.EndedAt.Sub(s.StartedAt))
		case livePID != 0 && s.PID == livePID:
			duration = "running"
		default:
			duration = colorize(color, colorYellow, "not stopped")
		}
		errCount := s.Counters.SnapshotErrors + s.Counters.WriteErrors
		errStr := fmt.Sprintf("%d", errCount)
		if errCount > 0 {
			errStr = colorize(color, colorRed, errStr)
		}

		sb.WriteString(fmt.Sprintf("%-8s %-16s %-10s %-9s %-6d %-6d %-8s %s\n",
			truncate(s.ID, 8),
			formatRelativeTime(s.StartedAt, now),
			duration,
			formatDuration(s.Interval),
			s.Counters.Ticks,
			s.Counters.IdleTicks,
			humanize.Comma(int64(s.Counters.Records)),
			errStr))
	}

	return sb.String()
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if now.Sub(t) < time.Minute {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// formatDuration renders d rounded to whole seconds, or "-" for zero.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.String()
	}
	return d.Round(time.Second).String()
}

// truncate truncates a string to maxLen, without an ellipsis for IDs.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
