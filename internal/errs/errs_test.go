package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestSnapshotError_WrapsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := fmt.Errorf("tick: %w", &SnapshotError{Source: "process table", Err: cause})

	var se *SnapshotError
	if !errors.As(err, &se) || se.Source != "process table" {
		t.Fatalf("errors.As(%v) did not find the SnapshotError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not reach the underlying cause")
	}
	if !strings.Contains(err.Error(), "process table") {
		t.Errorf("message %q missing source", err.Error())
	}
}

func TestLogWriteError_Message(t *testing.T) {
	err := &LogWriteError{Path: "/tmp/usage_logs.csv", Op: "append", Records: 3, Err: fs.ErrPermission}

	var se *SnapshotError
	if errors.As(err, &se) {
		t.Error("a LogWriteError matched *SnapshotError")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("errors.Is(err, fs.ErrPermission) = false")
	}
	for _, want := range []string{"append", "/tmp/usage_logs.csv", "3 records"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("message %q missing %q", err.Error(), want)
		}
	}
}

func TestParseError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *ParseError
		want string
	}{
		{
			name: "reason only",
			err:  &ParseError{Line: 4, Reason: "expected 3 fields, got 2"},
			want: "line 4: expected 3 fields, got 2",
		},
		{
			name: "with cause",
			err:  &ParseError{Line: 9, Reason: "bad count", Err: errors.New("not a number")},
			want: "line 9: bad count: not a number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArgumentError_Message(t *testing.T) {
	err := &ArgumentError{Name: "interval", Value: "abc", Default: "1"}
	want := `invalid interval "abc", using default 1`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
