// Package usagelog owns the append-only CSV file that records which
// applications were active at each tracking tick.
//
// File layout:
//
//	timestamp,app,minutes
//	"2024-01-15 10:30:00","firefox",1
//	"2024-01-15 10:30:00","my ""quoted"", app",1
//
// The file is only ever created (with its header) or appended to. Readers
// scan it from the start and may run while a tracker is appending.
package usagelog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blackwell-systems/screentime/internal/errs"
	"github.com/blackwell-systems/screentime/internal/logging"
	"github.com/blackwell-systems/screentime/internal/snapshot"
)

// DefaultFileName is the usage log name inside the data directory.
const DefaultFileName = "usage_logs.csv"

// maxRecordBytes bounds one row, line breaks inside its app name included.
const maxRecordBytes = 1 << 20

// Log is a handle on a usage log file.
type Log struct {
	path   string
	loc    *time.Location
	logger logging.Logger
	mu     sync.Mutex
}

// Option configures a Log.
type Option func(*Log)

// WithLocation sets the zone timestamps are written and parsed in.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(l *Log) { l.loc = loc }
}

// WithLogger sets where skipped rows are reported. Defaults to Nop.
func WithLogger(logger logging.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// New returns a handle for the log at path. The file is not touched.
func New(path string, opts ...Option) *Log {
	l := &Log{path: path, loc: time.Local, logger: logging.Nop{}}
	for _, opt := range opts {
		opt(l)
	}
	if l.loc == nil {
		l.loc = time.Local
	}
	if l.logger == nil {
		l.logger = logging.Nop{}
	}
	return l
}

// Path returns the file path.
func (l *Log) Path() string { return l.path }

// Ensure creates the log with its header if it does not exist yet.
// An existing file is left exactly as it is.
func (l *Log) Ensure() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureLocked()
}

func (l *Log) ensureLocked() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return &errs.LogWriteError{Path: l.path, Op: "create", Err: err}
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return &errs.LogWriteError{Path: l.path, Op: "create", Err: err}
	}

	_, werr := f.WriteString(Header + "\n")
	cerr := f.Close()
	if werr != nil {
		return &errs.LogWriteError{Path: l.path, Op: "create", Err: werr}
	}
	if cerr != nil {
		return &errs.LogWriteError{Path: l.path, Op: "create", Err: cerr}
	}
	return nil
}

// Append writes one record with Count 1 for every app in snap, stamped with
// ts, and returns the number of records written. All rows of one call go out
// in a single O_APPEND write, so a tick is appended whole or not at all.
// Failures are returned as *errs.LogWriteError and are not retried.
func (l *Log) Append(ts time.Time, snap snapshot.Snapshot) (int, error) {
	if snap.IsEmpty() {
		return 0, nil
	}

	var sb strings.Builder
	ts = ts.Truncate(time.Second)
	for _, app := range snap.Names() {
		sb.WriteString(EncodeRecord(Record{Timestamp: ts, App: app, Count: 1}, l.loc))
		sb.WriteByte('\n')
	}
	n := snap.Len()

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLocked(); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return 0, &errs.LogWriteError{Path: l.path, Op: "append", Records: n, Err: err}
	}

	_, werr := f.WriteString(sb.String())
	cerr := f.Close()
	if werr != nil {
		return 0, &errs.LogWriteError{Path: l.path, Op: "append", Records: n, Err: werr}
	}
	if cerr != nil {
		return 0, &errs.LogWriteError{Path: l.path, Op: "append", Records: n, Err: cerr}
	}
	return n, nil
}

// ScanResult summarises one pass over the log.
type ScanResult struct {
	// Rows is the number of valid records passed to the callback.
	Rows int
	// Skipped is the number of malformed rows that were ignored.
	Skipped int
}

// Scan reads the whole log from the beginning and calls fn for every valid
// record in file order. The header and blank lines are ignored; malformed
// rows are skipped, counted, and logged at debug level. A missing file
// scans as empty.
//
// A record whose quoted app name holds a line break spans several lines. A
// row left open by a torn write ends at the next line that starts a new row.
// Lines longer than maxRecordBytes are skipped without reading them whole.
func (l *Log) Scan(fn func(Record)) (ScanResult, error) {
	var res ScanResult

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("open usage log: %w", err)
	}
	defer f.Close()

	skip := func(lineNo int, err error) {
		res.Skipped++
		l.logger.Debug("skipping malformed usage log row", "path", l.path, "line", lineNo, "err", err)
	}
	decode := func(text string, lineNo int) {
		rec, err := DecodeRecord(text, lineNo, l.loc)
		if err != nil {
			skip(lineNo, err)
			return
		}
		res.Rows++
		fn(rec)
	}

	lr := newLineReader(f, maxRecordBytes)
	var pending []byte
	pendingLine, pendingQuotes := 0, 0
	lineNo := 0
	for {
		raw, tooLong, err := lr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("scan usage log: %w", err)
		}
		lineNo++

		if pending != nil {
			if !tooLong && !startsRow(raw) && len(pending)+len(raw) <= maxRecordBytes {
				pending = append(pending, raw...)
				// Escaped quotes come in pairs, so an even count closes the field.
				pendingQuotes += bytes.Count(raw, []byte{'"'})
				if pendingQuotes%2 == 0 {
					decode(string(trimEOL(pending)), pendingLine)
					pending = nil
				}
				continue
			}
			skip(pendingLine, &errs.ParseError{Line: pendingLine, Reason: "malformed row", Err: errOpenQuote})
			pending = nil
		}

		if tooLong {
			skip(lineNo, &errs.ParseError{Line: lineNo, Reason: fmt.Sprintf("row longer than %d bytes", maxRecordBytes)})
			continue
		}

		text := string(trimEOL(raw))
		if strings.TrimSpace(text) == "" || text == Header {
			continue
		}
		if openQuote(text) {
			pending = append([]byte(nil), raw...)
			pendingLine = lineNo
			pendingQuotes = bytes.Count(raw, []byte{'"'})
			continue
		}
		decode(text, lineNo)
	}
	if pending != nil {
		skip(pendingLine, &errs.ParseError{Line: pendingLine, Reason: "malformed row", Err: errOpenQuote})
	}
	return res, nil
}

// openQuote reports whether text ends inside a quoted field.
func openQuote(text string) bool {
	_, err := splitFields(text)
	return errors.Is(err, errOpenQuote)
}

// startsRow reports whether line begins like a data row: a quoted timestamp
// followed by a comma. Inside a quoted field a lone quote can only be
// followed by a comma or another quote, so a continuation never matches.
func startsRow(line []byte) bool {
	n := len(TimeLayout)
	if len(line) < n+3 || line[0] != '"' || line[n+1] != '"' || line[n+2] != ',' {
		return false
	}
	_, err := time.Parse(TimeLayout, string(line[1:n+1]))
	return err == nil
}

func trimEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))
	return bytes.TrimSuffix(b, []byte("\r"))
}

// lineReader yields physical lines with their terminators. A line longer
// than max is drained and reported as too long instead of being buffered.
type lineReader struct {
	br  *bufio.Reader
	max int
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{br: bufio.NewReaderSize(r, 64*1024), max: max}
}

func (lr *lineReader) next() (line []byte, tooLong bool, err error) {
	read := false
	for {
		chunk, err := lr.br.ReadSlice('\n')
		if len(chunk) > 0 {
			read = true
		}
		if !tooLong {
			if len(line)+len(chunk) > lr.max {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if !read {
				return nil, false, io.EOF
			}
			return line, tooLong, nil
		case err != nil:
			return nil, false, err
		}
		return line, tooLong, nil
	}
}
