package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/blackwell-systems/screentime/internal/follow"
	"github.com/blackwell-systems/screentime/internal/report"
)

// setupHome isolates config and data paths in temp dirs and resets the
// package-level flag values between tests.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	data := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("SCREENTIME_HOME", data)
	t.Setenv("NO_COLOR", "1")
	for _, k := range []string{
		"SCREENTIME_CONFIG", "SCREENTIME_LOG", "SCREENTIME_INTERVAL",
		"SCREENTIME_IDLE_THRESHOLD", "SCREENTIME_LIVE_REPORT", "SCREENTIME_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}

	configPath, logPath, logLevel = "", "", ""
	startDaemon, startDaemonChild = false, false
	dayFollow, weekFollow = false, false
	weekDays = report.DefaultWeekDays
	followDebounce = follow.DefaultDebounce
	statusSessions = 5

	return data
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	RootCmd.SetArgs(args)
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() {
		RootCmd.SetArgs(nil)
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetIn(nil)
	})

	err := RootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
