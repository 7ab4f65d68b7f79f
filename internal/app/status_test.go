package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/screentime/internal/store"
	"github.com/blackwell-systems/screentime/internal/tracker"
)

func TestStatus_Fresh(t *testing.T) {
	data := setupHome(t)

	stdout, _, err := execute(t, "", "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	for _, want := range []string{"stopped", "not created yet", "No tracking sessions recorded."} {
		if !strings.Contains(stdout, want) {
			t.Errorf("status missing %q:\n%s", want, stdout)
		}
	}

	// status must not create the session database.
	if _, err := os.Stat(filepath.Join(data, "sessions.db")); !os.IsNotExist(err) {
		t.Error("status created sessions.db")
	}
}

func TestStatus_RunningWithSessions(t *testing.T) {
	data := setupHome(t)
	if err := tracker.WritePIDFile(filepath.Join(data, "tracker.pid"), os.Getpid()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(data, "usage_logs.csv"), []byte("timestamp,app,minutes\n"), 0644); err != nil {
		t.Fatal(err)
	}

	st, err := store.New(filepath.Join(data, "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := st.CreateSchema(); err != nil {
		t.Fatal(err)
	}
	started := time.Now().Add(-2 * time.Hour)
	sess := &store.Session{ID: "feedface-1234", StartedAt: started, LogPath: "x", Interval: time.Minute, IdleThreshold: 5}
	if err := st.InsertSession(sess); err != nil {
		t.Fatal(err)
	}
	if err := st.EndSession(sess.ID, started.Add(time.Hour), store.Counters{Ticks: 60, Records: 180}); err != nil {
		t.Fatal(err)
	}
	st.Close()

	stdout, _, err := execute(t, "", "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	for _, want := range []string{"running (PID", "22 B", "Samples:   60", "feedface", "1h0m0s", "180"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("status missing %q:\n%s", want, stdout)
		}
	}
}

func TestStatus_UnfinishedSessionWithoutTracker(t *testing.T) {
	data := setupHome(t)

	st, err := store.New(filepath.Join(data, "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := st.CreateSchema(); err != nil {
		t.Fatal(err)
	}
	// A tracker that was killed never records its end.
	sess := &store.Session{ID: "deadbeef-5678", PID: 999999, StartedAt: time.Now().Add(-time.Hour),
		LogPath: "x", Interval: time.Minute, IdleThreshold: 5}
	if err := st.InsertSession(sess); err != nil {
		t.Fatal(err)
	}
	st.Close()

	stdout, _, err := execute(t, "", "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	var row string
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(line, "deadbeef") {
			row = line
		}
	}
	if !strings.Contains(row, "not stopped") {
		t.Errorf("session row = %q, want not stopped\n%s", row, stdout)
	}
}
