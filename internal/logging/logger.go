// Package logging provides the levelled key/value logger used by the tracker
// and the commands.
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// Logger is the logging surface used across screentime. Fields are
// alternating key/value pairs: logger.Warn("tick skipped", "err", err).
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config value such as "warn" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// TextLogger writes one line per entry:
//
//	2024/01/15 10:30:45 WARN tick skipped err="permission denied"
type TextLogger struct {
	mu    sync.Mutex
	min   Level
	inner *log.Logger
}

// New creates a TextLogger writing entries at or above min to w.
func New(w io.Writer, min Level) *TextLogger {
	return &TextLogger{
		min:   min,
		inner: log.New(w, "", log.LstdFlags),
	}
}

func (l *TextLogger) Debug(msg string, fields ...interface{}) { l.log(LevelDebug, msg, fields) }
func (l *TextLogger) Info(msg string, fields ...interface{})  { l.log(LevelInfo, msg, fields) }
func (l *TextLogger) Warn(msg string, fields ...interface{})  { l.log(LevelWarn, msg, fields) }
func (l *TextLogger) Error(msg string, fields ...interface{}) { l.log(LevelError, msg, fields) }

func (l *TextLogger) log(level Level, msg string, fields []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.min {
		return
	}
	var sb strings.Builder
	sb.WriteString(level.String())
	sb.WriteByte(' ')
	sb.WriteString(msg)
	writeFields(&sb, fields)
	l.inner.Print(sb.String())
}

// writeFields appends " key=value" pairs. A trailing key without a value or
// a non-string key is written under a positional name.
func writeFields(sb *strings.Builder, fields []interface{}) {
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("field_%d", i/2)
		}
		if i+1 >= len(fields) {
			fmt.Fprintf(sb, " %s=%s", fmt.Sprintf("field_%d", i/2), formatValue(fields[i]))
			break
		}
		if !ok {
			fmt.Fprintf(sb, " %s=%s", key, formatValue(fields[i]))
			fmt.Fprintf(sb, " %s_value=%s", key, formatValue(fields[i+1]))
			continue
		}
		fmt.Fprintf(sb, " %s=%s", key, formatValue(fields[i+1]))
	}
}

func formatValue(v interface{}) string {
	var s string
	switch val := v.(type) {
	case error:
		s = val.Error()
	case fmt.Stringer:
		s = val.String()
	default:
		s = fmt.Sprint(val)
	}
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...interface{}) {}
func (Nop) Info(string, ...interface{})  {}
func (Nop) Warn(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}
