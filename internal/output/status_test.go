package output

import (
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/screentime/internal/store"
)

func TestFormatStatus(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		st    Status
		wants []string
	}{
		{
			name:  "stopped without log",
			st:    Status{LogPath: "/home/u/.screentime/usage_logs.csv", LogSize: -1, Now: now},
			wants: []string{"stopped", "not created yet", "No tracking sessions recorded."},
		},
		{
			name: "running with sessions",
			st: Status{
				Running: true,
				PID:     4242,
				LogPath: "/tmp/usage.csv",
				LogSize: 2048,
				Now:     now,
				TotalTicks: 12345,
				Sessions: []*store.Session{
					{ID: "abcdef0123", PID: 4242, StartedAt: now.Add(-10 * time.Minute), Interval: time.Minute,
						Counters: store.Counters{Ticks: 10, WriteErrors: 1}},
				},
			},
			wants: []string{"running (PID 4242)", "2.0 kB", "12,345", "abcdef01", "10 minutes ago", "running"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatStatus(tt.st, false)
			for _, want := range tt.wants {
				if !strings.Contains(got, want) {
					t.Errorf("status missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestFormatSessionTable_UnfinishedSessions(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	sessions := []*store.Session{
		{ID: "live0000", PID: 100, StartedAt: now.Add(-time.Hour), Interval: time.Minute},
		{ID: "killed00", PID: 99, StartedAt: now.Add(-2 * time.Hour), Interval: time.Minute},
	}

	tests := []struct {
		name    string
		livePID int
		want    map[string]string
	}{
		{"tracker running", 100, map[string]string{"live0000": "running", "killed00": "not stopped"}},
		{"no tracker", 0, map[string]string{"live0000": "not stopped", "killed00": "not stopped"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSessionTable(sessions, tt.livePID, now, false)
			for _, line := range strings.Split(got, "\n") {
				for id, state := range tt.want {
					if strings.HasPrefix(line, id) && !strings.Contains(line, state) {
						t.Errorf("row %s = %q, want %q", id, line, state)
					}
					if strings.HasPrefix(line, id) && state == "not stopped" && strings.Contains(line, " running ") {
						t.Errorf("row %s shows running: %q", id, line)
					}
				}
			}
		})
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "never"},
		{now.Add(-30 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5 minutes ago"},
		{now.Add(-2 * time.Hour), "2 hours ago"},
	}

	for _, tt := range tests {
		if got := formatRelativeTime(tt.t, now); got != tt.want {
			t.Errorf("formatRelativeTime(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "-"},
		{500 * time.Millisecond, "500ms"},
		{90 * time.Second, "1m30s"},
		{time.Minute + 400*time.Millisecond, "1m0s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
