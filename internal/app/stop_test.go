package app

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/screentime/internal/tracker"
)

func TestStop_NotRunning(t *testing.T) {
	setupHome(t)

	stdout, _, err := execute(t, "", "stop")
	if err != nil {
		t.Fatalf("stop error = %v", err)
	}
	if !strings.Contains(stdout, "tracker is not running.") {
		t.Errorf("stop output = %q", stdout)
	}
}

func TestStop_StalePIDFile(t *testing.T) {
	data := setupHome(t)
	pidFile := filepath.Join(data, "tracker.pid")
	if err := tracker.WritePIDFile(pidFile, 999999); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execute(t, "", "stop")
	if err != nil {
		t.Fatalf("stop error = %v", err)
	}
	if !strings.Contains(stdout, "tracker is not running.") {
		t.Errorf("stop output = %q", stdout)
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("stale PID file not removed")
	}
}

func TestStop_SignalsTracker(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	data := setupHome(t)

	cmd := exec.Command(sleep, "30")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	go cmd.Wait()
	defer cmd.Process.Kill()

	if err := tracker.WritePIDFile(filepath.Join(data, "tracker.pid"), cmd.Process.Pid); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execute(t, "", "stop")
	if err != nil {
		t.Fatalf("stop error = %v", err)
	}
	if !strings.HasSuffix(stdout, "tracking stopped.\n") {
		t.Errorf("stop output = %q", stdout)
	}
	if !strings.Contains(stdout, "Waiting for tracker to exit...") {
		t.Errorf("stop output = %q, want wait message", stdout)
	}
}
