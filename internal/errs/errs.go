// Package errs defines the error types screentime reports at component
// boundaries. None of them end a tracking session on their own: callers log
// them and carry on with the next tick, row, or default value.
package errs

import "fmt"

// SnapshotError reports that the active application list could not be read.
// The tracker skips the tick and leaves its idle state untouched.
type SnapshotError struct {
	Source string
	Err    error
}

func (e *SnapshotError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("snapshot failed: %v", e.Err)
	}
	return fmt.Sprintf("snapshot from %s failed: %v", e.Source, e.Err)
}

func (e *SnapshotError) Unwrap() error { return e.Err }

// LogWriteError reports a failed create or append on the usage log.
// Appends are not retried.
type LogWriteError struct {
	Path    string
	Op      string // "create" or "append"
	Records int    // records the failed write would have added
	Err     error
}

func (e *LogWriteError) Error() string {
	return fmt.Sprintf("usage log %s %s (%d records): %v", e.Op, e.Path, e.Records, e.Err)
}

func (e *LogWriteError) Unwrap() error { return e.Err }

// ParseError describes a usage log row that could not be decoded.
type ParseError struct {
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ArgumentError describes a command-line value that was replaced by its
// default. Value is the rejected input and Default what was used instead.
type ArgumentError struct {
	Name    string
	Value   string
	Default string
	Err     error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %q, using default %s", e.Name, e.Value, e.Default)
}

func (e *ArgumentError) Unwrap() error { return e.Err }
