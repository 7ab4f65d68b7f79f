package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

var (
	// ErrNotRunning is returned by StopDaemon when no tracker owns the PID file.
	ErrNotRunning = errors.New("tracker not running")
	// ErrAlreadyRunning is returned by ClaimPIDFile when a live tracker owns
	// the PID file.
	ErrAlreadyRunning = errors.New("tracker already running")
)

// DaemonChildFlag marks the re-executed background process.
const DaemonChildFlag = "--daemon-child"

// StartDaemon starts a tracker as a background process. It re-executes the
// current binary with args plus DaemonChildFlag, writes the child's PID to
// pidFile, and redirects its output to logFile.
func StartDaemon(pidFile, logFile string, args []string) (int, error) {
	// Hold the PID file while the child starts so a concurrent start sees a
	// live owner.
	if err := ClaimPIDFile(pidFile, os.Getpid()); err != nil {
		return 0, err
	}
	started := false
	defer func() {
		if !started {
			RemovePIDFile(pidFile)
		}
	}()

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return 0, fmt.Errorf("failed to create log directory: %w", err)
	}
	logF, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer logF.Close()

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	childArgs := append(append([]string{}, args...), DaemonChildFlag)
	cmd := exec.Command(executable, childArgs...)
	cmd.Stdout = logF
	cmd.Stderr = logF
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon process: %w", err)
	}

	pid := cmd.Process.Pid
	if err := WritePIDFile(pidFile, pid); err != nil {
		cmd.Process.Kill()
		return 0, err
	}
	started = true

	if err := cmd.Process.Release(); err != nil {
		return 0, fmt.Errorf("failed to release process: %w", err)
	}

	return pid, nil
}

// RunDaemon runs s in the background child until SIGTERM or SIGINT, then
// removes pidFile if it still names this process.
func RunDaemon(ctx context.Context, s *Session, pidFile string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go ListenForStop(ctx, nil, s.Stop)

	err := s.Run(ctx)

	if rmErr := RemovePIDFile(pidFile); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// WritePIDFile records pid in pidFile, creating its directory if needed.
func WritePIDFile(pidFile string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}
	if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d\n", pid)), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// ClaimPIDFile creates pidFile holding pid, failing if it already exists.
// The file is linked into place fully written, so a reader never sees it
// empty. A file naming a dead process or holding garbage is removed and the
// claim retried; a live owner yields ErrAlreadyRunning.
func ClaimPIDFile(pidFile string, pid int) error {
	dir := filepath.Dir(pidFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tracker-*.pid")
	if err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer os.Remove(tmp.Name())
	_, werr := fmt.Fprintf(tmp, "%d\n", pid)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("failed to write PID file: %w", werr)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	for attempt := 0; attempt < 3; attempt++ {
		err := os.Link(tmp.Name(), pidFile)
		if err == nil {
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to create PID file: %w", err)
		}

		data, err := os.ReadFile(pidFile)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read PID file: %w", err)
		}
		if owner, perr := strconv.Atoi(strings.TrimSpace(string(data))); perr == nil && processAlive(owner) {
			return fmt.Errorf("%w (PID %d, PID file: %s)", ErrAlreadyRunning, owner, pidFile)
		}
		// Only remove the stale file if nobody replaced it since it was read.
		if current, _ := os.ReadFile(pidFile); !bytes.Equal(current, data) {
			continue
		}
		if err := os.Remove(pidFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale PID file: %w", err)
		}
	}
	return fmt.Errorf("%w (PID file: %s)", ErrAlreadyRunning, pidFile)
}

// RemovePIDFile deletes pidFile when it names the current process. A file
// owned by another tracker is left alone.
func RemovePIDFile(pidFile string) error {
	pid, err := ReadPID(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		// Unreadable contents: nothing can own it.
		pid = os.Getpid()
	}
	if pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(pidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// ReadPID parses the PID stored in pidFile.
func ReadPID(pidFile string) (int, error) {
	pidData, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}

// StopDaemon sends SIGTERM to the tracker named by pidFile and waits up to
// timeout for it to exit. ErrNotRunning means there was nothing to stop.
func StopDaemon(pidFile string, timeout time.Duration) error {
	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		return err
	}
	if !running {
		return ErrNotRunning
	}

	pid, err := ReadPID(pidFile)
	if err != nil {
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to process %d: %w", pid, err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			// The tracker normally removes its own PID file; clear it if it
			// was killed before it could.
			os.Remove(pidFile)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("process %d did not exit within %v", pid, timeout)
}

// IsDaemonRunning checks whether the PID in pidFile is a live process.
// A stale PID file is removed.
func IsDaemonRunning(pidFile string) (bool, error) {
	pid, err := ReadPID(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			// Invalid PID file, consider daemon not running
			return false, nil
		}
		return false, fmt.Errorf("failed to read PID file: %w", err)
	}

	if !processAlive(pid) {
		os.Remove(pidFile)
		return false, nil
	}
	return true, nil
}

// processAlive sends signal 0 to pid.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
