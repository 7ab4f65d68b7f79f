// Package report sums the usage log over a time window and ranks the most
// used applications.
//
// Every call scans the full log. The log is append-only and expected to stay
// small, so there is no index; large logs make reports proportionally slower.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/blackwell-systems/screentime/internal/usagelog"
)

const (
	// TopN is the maximum number of applications in a report.
	TopN = 5
	// BarWidth is the bar length, in characters, of the top entry.
	BarWidth = 30
)

// Entry is one ranked application.
type Entry struct {
	App   string
	Total int // summed record counts (ticks)
	Bar   int // bar length in characters, 0..BarWidth
}

// Report is the result of one aggregation.
type Report struct {
	Window      Window
	GeneratedAt time.Time
	// Entries holds at most TopN applications, highest total first.
	Entries []Entry
	// MaxTotal is the top entry's total, or 0 for an empty report.
	MaxTotal int
	// Apps is the number of distinct applications in the window.
	Apps int
	// GrandTotal sums every included record, not only the top entries.
	GrandTotal int
	// Included counts log rows inside the window.
	Included int
	// Skipped counts malformed log rows that were ignored.
	Skipped int
}

// Empty reports whether no application had activity in the window.
func (r *Report) Empty() bool { return len(r.Entries) == 0 }

// Source is what the aggregator reads records from.
type Source interface {
	Scan(fn func(usagelog.Record)) (usagelog.ScanResult, error)
}

// Aggregator builds reports from a usage log.
type Aggregator struct {
	src Source
}

// New returns an Aggregator over src.
func New(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Aggregate sums record counts per application for every record inside w
// (relative to now) and ranks them.
func (a *Aggregator) Aggregate(w Window, now time.Time) (*Report, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	totals := make(map[string]int)
	var order []string
	included := 0
	grand := 0

	res, err := a.src.Scan(func(r usagelog.Record) {
		if !w.Contains(r.Timestamp, now) {
			return
		}
		if _, seen := totals[r.App]; !seen {
			order = append(order, r.App)
		}
		totals[r.App] += r.Count
		included++
		grand += r.Count
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate usage: %w", err)
	}

	ranked := Rank(totals, order)
	maxTotal := 0
	if len(ranked) > 0 {
		maxTotal = ranked[0].Total
	}
	if len(ranked) > TopN {
		ranked = ranked[:TopN]
	}
	for i := range ranked {
		ranked[i].Bar = BarLength(ranked[i].Total, maxTotal, BarWidth)
	}

	return &Report{
		Window:      w,
		GeneratedAt: now,
		Entries:     ranked,
		MaxTotal:    maxTotal,
		Apps:        len(totals),
		GrandTotal:  grand,
		Included:    included,
		Skipped:     res.Skipped,
	}, nil
}

// Rank orders every application in totals by total, highest first. Ties keep
// their position in order (first seen first). Applications missing from
// order are appended in name order so the result stays deterministic.
func Rank(totals map[string]int, order []string) []Entry {
	entries := make([]Entry, 0, len(totals))
	listed := make(map[string]bool, len(order))
	for _, app := range order {
		if total, ok := totals[app]; ok && !listed[app] {
			entries = append(entries, Entry{App: app, Total: total})
			listed[app] = true
		}
	}
	if len(entries) < len(totals) {
		var rest []string
		for app := range totals {
			if !listed[app] {
				rest = append(rest, app)
			}
		}
		sort.Strings(rest)
		for _, app := range rest {
			entries = append(entries, Entry{App: app, Total: totals[app]})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Total > entries[j].Total
	})
	return entries
}

// BarLength scales total against max onto width characters, rounding down.
// A non-positive max yields 0.
func BarLength(total, max, width int) int {
	if max <= 0 || total <= 0 {
		return 0
	}
	n := total * width / max
	if n > width {
		return width
	}
	return n
}
