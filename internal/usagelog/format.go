package usagelog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/screentime/internal/errs"
)

const (
	// Header is the first line of every usage log.
	Header = "timestamp,app,minutes"

	// TimeLayout is the local-time timestamp format of the first column.
	TimeLayout = "2006-01-02 15:04:05"

	// fieldCount is the number of columns in a data row.
	fieldCount = 3
)

// Record is one row of the usage log: app was active at Timestamp.
// Count is always 1 for rows written by the tracker, so totals in a report
// are tick counts, not elapsed minutes.
type Record struct {
	Timestamp time.Time
	App       string
	Count     int
}

// EncodeRecord renders r as a data row without the trailing newline:
//
//	"2024-01-15 10:30:00","my ""quoted"", app",1
//
// The timestamp is written in loc. Quotes inside the app name are doubled.
func EncodeRecord(r Record, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return fmt.Sprintf("%s,%s,%d",
		quote(r.Timestamp.In(loc).Format(TimeLayout)),
		quote(r.App),
		r.Count)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// DecodeRecord parses one data row. Timestamps are interpreted in loc.
// The returned error is a *errs.ParseError; line is used only to fill it in.
// A quoted app name may contain line breaks; they are kept as written.
func DecodeRecord(line string, lineNo int, loc *time.Location) (Record, error) {
	if loc == nil {
		loc = time.Local
	}

	fields, err := splitFields(line)
	if err != nil {
		return Record{}, &errs.ParseError{Line: lineNo, Reason: "malformed row", Err: err}
	}
	if len(fields) != fieldCount {
		return Record{}, &errs.ParseError{
			Line:   lineNo,
			Reason: fmt.Sprintf("expected %d fields, got %d", fieldCount, len(fields)),
		}
	}

	ts, err := time.ParseInLocation(TimeLayout, fields[0], loc)
	if err != nil {
		return Record{}, &errs.ParseError{Line: lineNo, Reason: "bad timestamp", Err: err}
	}

	count, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return Record{}, &errs.ParseError{Line: lineNo, Reason: "bad count", Err: err}
	}
	if count <= 0 {
		return Record{}, &errs.ParseError{Line: lineNo, Reason: fmt.Sprintf("count %d is not positive", count)}
	}

	return Record{Timestamp: ts, App: fields[1], Count: count}, nil
}

var (
	errOpenQuote = errors.New("unterminated quoted field")
	errBareQuote = errors.New(`bare " in field`)
)

// splitFields splits one row on commas. Quoted fields may hold commas, line
// breaks and doubled quotes; every byte between the quotes is kept, so
// "\r\n" inside a name survives unchanged.
func splitFields(s string) ([]string, error) {
	var fields []string
	for {
		if !strings.HasPrefix(s, `"`) {
			field := s
			rest := ""
			more := false
			if i := strings.IndexByte(s, ','); i >= 0 {
				field, rest, more = s[:i], s[i+1:], true
			}
			if strings.Contains(field, `"`) {
				return nil, errBareQuote
			}
			fields = append(fields, field)
			if !more {
				return fields, nil
			}
			s = rest
			continue
		}

		var sb strings.Builder
		i := 1
		for {
			j := strings.IndexByte(s[i:], '"')
			if j < 0 {
				return nil, errOpenQuote
			}
			sb.WriteString(s[i : i+j])
			i += j + 1
			if i < len(s) && s[i] == '"' {
				sb.WriteByte('"')
				i++
				continue
			}
			break
		}
		fields = append(fields, sb.String())

		s = s[i:]
		if s == "" {
			return fields, nil
		}
		if s[0] != ',' {
			return nil, errBareQuote
		}
		s = s[1:]
	}
}
