// Package output provides terminal output utilities for screentime.
//
// This package includes:
//   - Report rendering as an ASCII bar chart
//   - Status and session-history tables
//   - A spinner for indeterminate waits
//
// Colour is only emitted when the destination is a terminal and NO_COLOR is
// unset.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blackwell-systems/screentime/internal/report"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

const ruleWidth = 25

// colorFor reports whether w should receive ANSI colour.
func colorFor(w io.Writer) bool {
	return os.Getenv("NO_COLOR") == "" && writerIsTTY(w)
}

// colorize wraps text in color when enabled is true.
func colorize(enabled bool, color, text string) string {
	if enabled {
		return color + text + colorReset
	}
	return text
}

// ReportOptions tunes RenderReport.
type ReportOptions struct {
	// Notes appends the skipped-row count and the tick/minute caveat.
	Notes bool
}

// FormatReport returns the bar chart for r:
//
//	daily report:
//	-------------------------
//	Code                 :  30 min |##############################
//
// followed by a blank line. Names are never truncated.
func FormatReport(r *report.Report, opts ReportOptions, color bool) string {
	var sb strings.Builder

	sb.WriteString(r.Window.Title() + " report:\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")

	for _, e := range r.Entries {
		bar := colorize(color && e.Bar > 0, colorGreen, strings.Repeat("#", e.Bar))
		sb.WriteString(fmt.Sprintf("%-20s : %3d min |%s\n", e.App, e.Total, bar))
	}

	if opts.Notes {
		if r.Empty() {
			sb.WriteString(colorize(color, colorGray, "no activity recorded."))
			sb.WriteString("\n")
		} else if r.Apps > len(r.Entries) {
			sb.WriteString(colorize(color, colorGray,
				fmt.Sprintf("(%d more apps, %d min in total)", r.Apps-len(r.Entries), r.GrandTotal)))
			sb.WriteString("\n")
		}
		if r.Skipped > 0 {
			sb.WriteString(colorize(color, colorYellow,
				fmt.Sprintf("warning: %d malformed log rows skipped", r.Skipped)))
			sb.WriteString("\n")
		}
		if !r.Empty() {
			sb.WriteString(colorize(color, colorGray, "(min = tracking ticks; exact only at a 1-minute interval)"))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// RenderReport writes r to w, colouring bars when w is a terminal.
func RenderReport(w io.Writer, r *report.Report, opts ReportOptions) error {
	_, err := io.WriteString(w, FormatReport(r, opts, colorFor(w)))
	return err
}
