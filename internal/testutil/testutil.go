// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blackwell-systems/screentime/internal/snapshot"
	"github.com/blackwell-systems/screentime/internal/usagelog"
)

// Step is one scripted Snapshot call: either a snapshot or an error.
type Step struct {
	Names []string
	Err   error
}

// FakeSource replays scripted steps. Once the script runs out it keeps
// returning the last step.
type FakeSource struct {
	mu    sync.Mutex
	steps []Step
	calls int
}

// NewFakeSource returns a source that replays steps in order.
func NewFakeSource(steps ...Step) *FakeSource {
	return &FakeSource{steps: steps}
}

// Names is shorthand for a successful step.
func Names(names ...string) Step {
	return Step{Names: names}
}

// Fail is shorthand for a failing step.
func Fail(err error) Step {
	return Step{Err: err}
}

// Snapshot implements snapshot.Source.
func (f *FakeSource) Snapshot(ctx context.Context) (snapshot.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.steps) == 0 {
		f.calls++
		return snapshot.New(), nil
	}
	i := f.calls
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	}
	f.calls++

	step := f.steps[i]
	if step.Err != nil {
		return snapshot.Snapshot{}, step.Err
	}
	return snapshot.New(step.Names...), nil
}

// Calls returns how many times Snapshot has been called.
func (f *FakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Entry is one captured log call.
type Entry struct {
	Level  string
	Msg    string
	Fields []interface{}
}

// RecordingLogger captures log calls for assertions.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []Entry
}

func (l *RecordingLogger) Debug(msg string, fields ...interface{}) { l.add("DEBUG", msg, fields) }
func (l *RecordingLogger) Info(msg string, fields ...interface{})  { l.add("INFO", msg, fields) }
func (l *RecordingLogger) Warn(msg string, fields ...interface{})  { l.add("WARN", msg, fields) }
func (l *RecordingLogger) Error(msg string, fields ...interface{}) { l.add("ERROR", msg, fields) }

func (l *RecordingLogger) add(level, msg string, fields []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Fields: fields})
}

// Entries returns a copy of everything logged so far.
func (l *RecordingLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Count returns how many entries were logged at level.
func (l *RecordingLogger) Count(level string) int {
	n := 0
	for _, e := range l.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether any entry at level has a message containing substr.
func (l *RecordingLogger) Contains(level, substr string) bool {
	for _, e := range l.Entries() {
		if e.Level == level && strings.Contains(e.Msg, substr) {
			return true
		}
	}
	return false
}

// String renders all entries, one per line, for failure messages.
func (l *RecordingLogger) String() string {
	var sb strings.Builder
	for _, e := range l.Entries() {
		fmt.Fprintf(&sb, "%s %s %v\n", e.Level, e.Msg, e.Fields)
	}
	return sb.String()
}

// TempLog returns a usage log in a fresh temp directory, in UTC.
func TempLog(t *testing.T) *usagelog.Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), usagelog.DefaultFileName)
	return usagelog.New(path, usagelog.WithLocation(time.UTC))
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Eventually polls cond until it holds or the timeout passes.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out after %v: %s", timeout, msg)
}
