package store

import (
	"database/sql"
	"fmt"
	"time"
)

const sessionColumns = `id, started_at, ended_at, pid, log_path, interval_ms, idle_threshold, live_report,
		ticks, idle_ticks, records, snapshot_errors, write_errors`

// InsertSession records the start of a session.
func (s *Store) InsertSession(sess *Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		sess.ID,
		sess.StartedAt.UTC().Format(time.RFC3339),
		formatOptionalTime(sess.EndedAt),
		sess.PID,
		sess.LogPath,
		sess.Interval.Milliseconds(),
		sess.IdleThreshold,
		sess.LiveReport,
		sess.Counters.Ticks,
		sess.Counters.IdleTicks,
		sess.Counters.Records,
		sess.Counters.SnapshotErrors,
		sess.Counters.WriteErrors,
	)
	if err != nil {
		return wrapQueryErr(err, fmt.Sprintf("failed to insert session %s", sess.ID))
	}
	return nil
}

// UpdateCounters stores the latest counters of a running session.
func (s *Store) UpdateCounters(id string, c Counters) error {
	query := `
		UPDATE sessions
		SET ticks = ?, idle_ticks = ?, records = ?, snapshot_errors = ?, write_errors = ?
		WHERE id = ?
	`
	result, err := s.db.Exec(query, c.Ticks, c.IdleTicks, c.Records, c.SnapshotErrors, c.WriteErrors, id)
	if err != nil {
		return wrapQueryErr(err, fmt.Sprintf("failed to update session %s", id))
	}
	return requireOneRow(result, id)
}

// EndSession stores the final counters and the stop time.
func (s *Store) EndSession(id string, endedAt time.Time, c Counters) error {
	query := `
		UPDATE sessions
		SET ended_at = ?, ticks = ?, idle_ticks = ?, records = ?, snapshot_errors = ?, write_errors = ?
		WHERE id = ?
	`
	result, err := s.db.Exec(query,
		endedAt.UTC().Format(time.RFC3339),
		c.Ticks, c.IdleTicks, c.Records, c.SnapshotErrors, c.WriteErrors,
		id,
	)
	if err != nil {
		return wrapQueryErr(err, fmt.Sprintf("failed to end session %s", id))
	}
	return requireOneRow(result, id)
}

// ListSessions returns up to limit sessions, newest first. A limit of zero
// or less returns all of them.
func (s *Store) ListSessions(limit int) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapQueryErr(err, "failed to list sessions")
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// TotalTicks sums ticks across every recorded session.
func (s *Store) TotalTicks() (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRow("SELECT SUM(ticks) FROM sessions").Scan(&total)
	if err != nil {
		return 0, wrapQueryErr(err, "failed to sum ticks")
	}
	return int(total.Int64), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var startedAt string
	var endedAt sql.NullString
	var intervalMS int64

	err := row.Scan(
		&sess.ID,
		&startedAt,
		&endedAt,
		&sess.PID,
		&sess.LogPath,
		&intervalMS,
		&sess.IdleThreshold,
		&sess.LiveReport,
		&sess.Counters.Ticks,
		&sess.Counters.IdleTicks,
		&sess.Counters.Records,
		&sess.Counters.SnapshotErrors,
		&sess.Counters.WriteErrors,
	)
	if err != nil {
		return nil, err
	}

	sess.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at for session %s: %w", sess.ID, err)
	}
	if endedAt.Valid && endedAt.String != "" {
		sess.EndedAt, err = time.Parse(time.RFC3339, endedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ended_at for session %s: %w", sess.ID, err)
		}
	}
	sess.Interval = time.Duration(intervalMS) * time.Millisecond

	return &sess, nil
}

func formatOptionalTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func requireOneRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}
