package tracker

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/blackwell-systems/screentime/internal/testutil"
)

func TestIsDaemonRunning_NotRunning(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "tracker.pid")

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for non-existent PID file")
	}
}

func TestIsDaemonRunning_WithCurrentProcess(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "tracker.pid")
	if err := WritePIDFile(pidFile, os.Getpid()); err != nil {
		t.Fatal(err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if !running {
		t.Error("IsDaemonRunning() = false, want true for current process")
	}
}

func TestIsDaemonRunning_WithDeadProcess(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "tracker.pid")

	// A PID that is very unlikely to be in use.
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(999999)+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for dead process")
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("stale PID file was not removed")
	}
}

func TestIsDaemonRunning_InvalidPID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "tracker.pid")
	if err := os.WriteFile(pidFile, []byte("not-a-number\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for invalid PID")
	}
}

func TestWriteAndReadPID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "nested", "tracker.pid")
	if err := WritePIDFile(pidFile, 1234); err != nil {
		t.Fatalf("WritePIDFile() error = %v", err)
	}

	pid, err := ReadPID(pidFile)
	if err != nil {
		t.Fatalf("ReadPID() error = %v", err)
	}
	if pid != 1234 {
		t.Errorf("ReadPID() = %d, want 1234", pid)
	}
}

func TestClaimPIDFile(t *testing.T) {
	tests := []struct {
		name     string
		existing string // "" means no file
		wantErr  error
	}{
		{"no file", "", nil},
		{"dead owner", "999999\n", nil},
		{"garbage", "not-a-number\n", nil},
		{"live owner", strconv.Itoa(os.Getpid()) + "\n", ErrAlreadyRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pidFile := filepath.Join(t.TempDir(), "nested", "tracker.pid")
			if tt.existing != "" {
				if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(pidFile, []byte(tt.existing), 0644); err != nil {
					t.Fatal(err)
				}
			}

			err := ClaimPIDFile(pidFile, 4321)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ClaimPIDFile() error = %v, want %v", err, tt.wantErr)
			}

			pid, rerr := ReadPID(pidFile)
			if rerr != nil {
				t.Fatalf("ReadPID() error = %v", rerr)
			}
			want := 4321
			if tt.wantErr != nil {
				want = os.Getpid()
			}
			if pid != want {
				t.Errorf("PID file holds %d, want %d", pid, want)
			}
		})
	}
}

func TestClaimPIDFile_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "tracker.pid")

	const claimants = 8
	var wg sync.WaitGroup
	results := make(chan error, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ClaimPIDFile(pidFile, os.Getpid())
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for err := range results {
		switch {
		case err == nil:
			won++
		case !errors.Is(err, ErrAlreadyRunning):
			t.Errorf("ClaimPIDFile() error = %v, want nil or ErrAlreadyRunning", err)
		}
	}
	if won != 1 {
		t.Errorf("%d claims succeeded, want exactly 1", won)
	}
}

func TestRemovePIDFile_OnlyOwnPID(t *testing.T) {
	dir := t.TempDir()

	own := filepath.Join(dir, "own.pid")
	if err := WritePIDFile(own, os.Getpid()); err != nil {
		t.Fatal(err)
	}
	if err := RemovePIDFile(own); err != nil {
		t.Fatalf("RemovePIDFile(own) error = %v", err)
	}
	if _, err := os.Stat(own); !os.IsNotExist(err) {
		t.Error("own PID file was not removed")
	}

	other := filepath.Join(dir, "other.pid")
	if err := WritePIDFile(other, os.Getpid()+1); err != nil {
		t.Fatal(err)
	}
	if err := RemovePIDFile(other); err != nil {
		t.Fatalf("RemovePIDFile(other) error = %v", err)
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("PID file of another process was removed")
	}

	if err := RemovePIDFile(filepath.Join(dir, "missing.pid")); err != nil {
		t.Errorf("RemovePIDFile(missing) error = %v", err)
	}
}

func TestStopDaemon_NotRunning(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "tracker.pid")

	err := StopDaemon(pidFile, time.Second)
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("StopDaemon() error = %v, want ErrNotRunning", err)
	}
}

func TestStopDaemon_SignalsProcess(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}

	cmd := exec.Command(sleep, "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start child: %v", err)
	}
	// Reap the child so it does not linger as a zombie.
	go cmd.Wait()

	pidFile := filepath.Join(t.TempDir(), "tracker.pid")
	if err := WritePIDFile(pidFile, cmd.Process.Pid); err != nil {
		t.Fatal(err)
	}

	if err := StopDaemon(pidFile, 5*time.Second); err != nil {
		cmd.Process.Kill()
		t.Fatalf("StopDaemon() error = %v", err)
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("PID file was not removed after stop")
	}
}

func TestRunDaemon_RemovesPIDFileOnStop(t *testing.T) {
	src := testutil.NewFakeSource(testutil.Names("a"))
	s, _, _ := newTestSession(t, src, Options{Interval: time.Hour})

	pidFile := filepath.Join(t.TempDir(), "tracker.pid")
	if err := WritePIDFile(pidFile, os.Getpid()); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- RunDaemon(context.Background(), s, pidFile) }()

	testutil.Eventually(t, 2*time.Second, func() bool { return src.Calls() >= 1 }, "first tick")
	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunDaemon() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunDaemon() did not return")
	}

	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("PID file was not removed")
	}
}
