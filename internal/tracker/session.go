package tracker

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/screentime/internal/idle"
	"github.com/blackwell-systems/screentime/internal/logging"
	"github.com/blackwell-systems/screentime/internal/output"
	"github.com/blackwell-systems/screentime/internal/report"
	"github.com/blackwell-systems/screentime/internal/snapshot"
	"github.com/blackwell-systems/screentime/internal/store"
	"github.com/blackwell-systems/screentime/internal/usagelog"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options are the per-session tracking settings.
type Options struct {
	Interval      time.Duration
	IdleThreshold int
	LiveReport    bool
}

// Recorder persists session history. *store.Store satisfies it.
type Recorder interface {
	InsertSession(sess *store.Session) error
	UpdateCounters(id string, c store.Counters) error
	EndSession(id string, endedAt time.Time, c store.Counters) error
}

// Stats is a point-in-time view of a session.
type Stats struct {
	ID        string
	State     State
	StartedAt time.Time
	Counters  store.Counters
	// Idle is true while the classifier is emitting IDLE.
	Idle bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the diagnostics logger. The default discards everything.
func WithLogger(logger logging.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithRecorder records the session start, per-tick counters and end.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithLiveOutput sets where live reports are written. Defaults to stdout.
func WithLiveOutput(w io.Writer) Option {
	return func(s *Session) { s.live = w }
}

// WithClock replaces time.Now for log timestamps and report windows.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is one run of the tracking loop. A Session runs at most once.
type Session struct {
	id       string
	src      snapshot.Source
	log      *usagelog.Log
	opts     Options
	logger   logging.Logger
	recorder Recorder
	live     io.Writer
	now      func() time.Time

	mu        sync.Mutex
	state     State
	idleState idle.State
	counters  store.Counters
	startedAt time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a Session that snapshots src and appends to log. A non-positive
// interval or idle threshold is replaced by the defaults.
func New(src snapshot.Source, log *usagelog.Log, opts Options, options ...Option) *Session {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.IdleThreshold <= 0 {
		opts.IdleThreshold = idle.DefaultThreshold
	}

	s := &Session{
		id:     uuid.NewString(),
		src:    src,
		log:    log,
		opts:   opts,
		logger: logging.Nop{},
		live:   os.Stdout,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns a copy of the session counters. Safe from any goroutine.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		ID:        s.id,
		State:     s.state,
		StartedAt: s.startedAt,
		Counters:  s.counters,
		Idle:      s.idleState.Idle(),
	}
}

// Stop ends the session after any in-flight tick. It may be called any number
// of times, from any goroutine, before or during Run.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Run tracks until ctx is cancelled or Stop is called. It returns an error
// only when the session has already been run.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("session %s is already %s", s.id, state)
	}
	s.state = StateRunning
	s.idleState = idle.NewState(s.opts.IdleThreshold)
	s.counters = store.Counters{}
	s.startedAt = s.now()
	s.mu.Unlock()

	if err := s.log.Ensure(); err != nil {
		s.logger.Error("failed to create usage log", "path", s.log.Path(), "error", err)
	}
	s.recordStart()
	s.logger.Info("tracking started",
		"session", s.id,
		"interval", s.opts.Interval,
		"idle_threshold", s.opts.IdleThreshold,
		"live_report", s.opts.LiveReport,
		"log", s.log.Path())

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	if !s.stopping(ctx) {
		s.tick(ctx)
	}

	for !s.stopping(ctx) {
		select {
		case <-ctx.Done():
		case <-s.stopCh:
		case <-ticker.C:
			// A stop that raced with the tick wins.
			if !s.stopping(ctx) {
				s.tick(ctx)
			}
		}
	}

	s.finish()
	return nil
}

func (s *Session) stopping(ctx context.Context) bool {
	select {
	case <-s.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// tick runs snapshot, classify, append, then the optional live report.
func (s *Session) tick(ctx context.Context) {
	snap, err := s.src.Snapshot(ctx)
	if err != nil {
		s.mu.Lock()
		s.counters.SnapshotErrors++
		s.mu.Unlock()
		s.logger.Warn("snapshot failed, skipping tick", "error", err)
		return
	}

	s.mu.Lock()
	out, next := idle.Classify(snap, s.idleState)
	s.mu.Unlock()

	now := s.now()
	n, appendErr := s.log.Append(now, out)

	s.mu.Lock()
	s.idleState = next
	s.counters.Ticks++
	s.counters.Records += n
	if next.Idle() {
		s.counters.IdleTicks++
	}
	if appendErr != nil {
		s.counters.WriteErrors++
	}
	counters := s.counters
	s.mu.Unlock()

	if appendErr != nil {
		s.logger.Error("failed to append usage", "error", appendErr)
	}
	s.logger.Debug("tick", "apps", snap.Len(), "logged", n, "idle", next.Idle(), "idle_ticks", next.IdleTicks)

	if s.recorder != nil {
		if err := s.recorder.UpdateCounters(s.id, counters); err != nil {
			s.logger.Warn("failed to record session counters", "session", s.id, "error", err)
		}
	}

	if s.opts.LiveReport {
		s.renderLive(now)
	}
}

func (s *Session) renderLive(now time.Time) {
	r, err := report.New(s.log).Aggregate(report.Today(), now)
	if err != nil {
		s.logger.Warn("live report failed", "error", err)
		return
	}
	if err := output.RenderReport(s.live, r, output.ReportOptions{}); err != nil {
		s.logger.Warn("failed to write live report", "error", err)
	}
}

func (s *Session) recordStart() {
	if s.recorder == nil {
		return
	}
	s.mu.Lock()
	sess := &store.Session{
		ID:            s.id,
		StartedAt:     s.startedAt,
		PID:           os.Getpid(),
		LogPath:       s.log.Path(),
		Interval:      s.opts.Interval,
		IdleThreshold: s.opts.IdleThreshold,
		LiveReport:    s.opts.LiveReport,
	}
	s.mu.Unlock()

	if err := s.recorder.InsertSession(sess); err != nil {
		s.logger.Warn("failed to record session start", "session", s.id, "error", err)
	}
}

func (s *Session) finish() {
	s.mu.Lock()
	s.state = StateStopped
	counters := s.counters
	s.mu.Unlock()

	if s.recorder != nil {
		if err := s.recorder.EndSession(s.id, s.now(), counters); err != nil {
			s.logger.Warn("failed to record session end", "session", s.id, "error", err)
		}
	}
	s.logger.Info("tracking stopped",
		"session", s.id,
		"ticks", counters.Ticks,
		"idle_ticks", counters.IdleTicks,
		"records", counters.Records)
}
