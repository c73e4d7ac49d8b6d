// Package watch reloads a saved layout file whenever it changes on disk.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"packview/internal/layout"
	"packview/internal/packing"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reload carries the outcome of re-reading the watched file.
type Reload struct {
	Path string
	Grid *layout.Grid
	Err  error
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Reloads       int
	Errors        int
	LastEventTime time.Time
	LastEventType string
}

// Watcher watches a single layout file. It watches the parent directory so
// editors that save by rename are still seen.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	dir         string
	pendingAt   time.Time
	pending     bool
	debounceDur time.Duration
	reloads     chan Reload
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	closeOnce   sync.Once
	logger      *zap.Logger

	stats Stats
}

// New creates a Watcher for path. Rapid writes within debounce collapse
// into one reload.
func New(path string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fw,
		path:        abs,
		dir:         filepath.Dir(abs),
		debounceDur: debounce,
		reloads:     make(chan Reload, 1),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		logger:      logger,
	}, nil
}

// Reloads delivers one Reload per settled change. It is closed when the
// watcher stops.
func (w *Watcher) Reloads() <-chan Reload {
	return w.reloads
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Unlock()
		return err
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("watching layout file", zap.String("path", w.path))
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit. It is safe
// to call more than once, and before Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	w.closeOnce.Do(func() {
		close(w.stopCh)
		if running {
			<-w.doneCh
		} else {
			close(w.reloads)
		}
		if err := w.watcher.Close(); err != nil {
			w.logger.Error("error closing watcher", zap.Error(err))
		}
	})
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer close(w.reloads)

	tick := w.debounceDur / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			if !w.settled() {
				continue
			}
			r := w.reload()
			select {
			case w.reloads <- r:
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	default:
		return
	}
	w.logger.Debug("layout file event", zap.String("type", eventType))

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventType = eventType
	w.pending = true
	w.pendingAt = time.Now()
	w.mu.Unlock()
}

// settled reports whether a pending change has been quiet for the debounce
// window, clearing it if so.
func (w *Watcher) settled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pending || time.Since(w.pendingAt) < w.debounceDur {
		return false
	}
	w.pending = false
	return true
}

func (w *Watcher) reload() Reload {
	g, err := packing.ReadLayoutFile(w.path)

	w.mu.Lock()
	if err != nil {
		w.stats.Errors++
	} else {
		w.stats.Reloads++
	}
	w.mu.Unlock()

	if err != nil {
		var de *layout.DecodeError
		if errors.As(err, &de) {
			w.logger.Warn("reloaded layout is malformed", zap.Error(err))
		} else {
			w.logger.Warn("layout reload failed", zap.Error(err))
		}
		return Reload{Path: w.path, Err: err}
	}
	w.logger.Info("layout reloaded", zap.Stringer("dims", g.Dims()))
	return Reload{Path: w.path, Grid: g}
}
