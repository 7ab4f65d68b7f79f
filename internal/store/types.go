package store

import "time"

// Session is one run of the tracking loop.
type Session struct {
	ID            string
	StartedAt     time.Time
	EndedAt       time.Time // zero while running or if the tracker died
	PID           int
	LogPath       string
	Interval      time.Duration
	IdleThreshold int
	LiveReport    bool
	Counters      Counters
}

// Counters are the running totals of a session.
type Counters struct {
	Ticks          int // ticks that reached the log (including failed writes)
	IdleTicks      int // ticks logged as IDLE
	Records        int // rows appended to the usage log
	SnapshotErrors int
	WriteErrors    int
}

// Ended reports whether the session recorded a clean stop.
func (s *Session) Ended() bool {
	return !s.EndedAt.IsZero()
}
