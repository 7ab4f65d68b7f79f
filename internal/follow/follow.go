// Package follow re-renders a report whenever the usage log changes.
package follow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/screentime/internal/logging"
)

// DefaultDebounce coalesces the burst of events from one append.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls a render function each time a file is written, created,
// removed or renamed.
type Watcher struct {
	path     string
	render   func() error
	logger   logging.Logger
	debounce time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the diagnostics logger.
func WithLogger(logger logging.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// WithDebounce sets how long to wait for further events before rendering.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New returns a Watcher for path.
func New(path string, render func() error, opts ...Option) *Watcher {
	w := &Watcher{
		path:     path,
		render:   render,
		logger:   logging.Nop{},
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run renders once, then again after every change to the file, until ctx is
// done. The file's directory is watched so that a log created after Run
// starts is still picked up. Render errors are logged and do not end Run.
func (w *Watcher) Run(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.path, err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.renderOnce()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("log changed", "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watch error", "error", err)

		case <-fire:
			timer = nil
			fire = nil
			w.renderOnce()
		}
	}
}

func (w *Watcher) renderOnce() {
	if err := w.render(); err != nil {
		w.logger.Warn("failed to render report", "error", err)
	}
}
