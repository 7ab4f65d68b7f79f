package report

import (
	"fmt"
	"time"
)

// Kind selects how a Window filters records.
type Kind int

const (
	// KindToday keeps records from now's local calendar date.
	KindToday Kind = iota
	// KindLastNDays keeps records in [now - n days, now].
	KindLastNDays
)

// DefaultWeekDays is the length of the canonical weekly window.
const DefaultWeekDays = 7

// Window is the time range a report sums over.
type Window struct {
	Kind Kind
	Days int // used by KindLastNDays
}

// Today returns the calendar-day window.
func Today() Window {
	return Window{Kind: KindToday}
}

// LastNDays returns the rolling window covering the n days before now.
func LastNDays(n int) Window {
	return Window{Kind: KindLastNDays, Days: n}
}

// Validate rejects rolling windows with a non-positive length.
func (w Window) Validate() error {
	switch w.Kind {
	case KindToday:
		return nil
	case KindLastNDays:
		if w.Days <= 0 {
			return fmt.Errorf("invalid window: %d days (must be positive)", w.Days)
		}
		return nil
	default:
		return fmt.Errorf("unknown window kind %d", w.Kind)
	}
}

// Contains reports whether a record stamped t belongs in the window ending
// at now. Calendar dates are compared in now's location; the rolling window
// compares full timestamps and includes both ends.
func (w Window) Contains(t, now time.Time) bool {
	switch w.Kind {
	case KindToday:
		ty, tm, td := t.In(now.Location()).Date()
		ny, nm, nd := now.Date()
		return ty == ny && tm == nm && td == nd
	case KindLastNDays:
		start := now.AddDate(0, 0, -w.Days)
		return !t.Before(start) && !t.After(now)
	default:
		return false
	}
}

// Title names the window in report headings.
func (w Window) Title() string {
	switch {
	case w.Kind == KindToday:
		return "daily"
	case w.Kind == KindLastNDays && w.Days == DefaultWeekDays:
		return "weekly"
	default:
		return fmt.Sprintf("last %d days", w.Days)
	}
}
