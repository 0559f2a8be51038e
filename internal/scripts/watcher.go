package scripts

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce = 500 * time.Millisecond
	flushInterval   = 100 * time.Millisecond
)

// Watcher reloads scripts when .lua files in a directory change.
// Bursts of events (editors saving in several steps) are collapsed into one reload.
type Watcher struct {
	dir      string
	reload   func() error
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending time.Time
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	reloads int
}

// NewWatcher creates a watcher for dir calling reload after changes settle.
func NewWatcher(dir string, reload func() error, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		reload:   reload,
		logger:   logger.With("component", "scripts_watcher"),
		debounce: defaultDebounce,
	}
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.watcher = fw
	w.pending = time.Time{}
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.run(ctx, fw, w.stopCh, w.doneCh)

	w.logger.Info("Watching scripts", "dir", w.dir)
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh, fw := w.stopCh, w.doneCh, w.watcher
	w.mu.Unlock()

	close(stopCh)
	<-doneCh

	if err := fw.Close(); err != nil {
		w.logger.Error("Failed to close watcher", "error", err)
	}
	w.logger.Info("Stopped watching scripts")
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Reloads returns how many reloads the watcher has triggered.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.EqualFold(filepath.Ext(event.Name), Extension) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.logger.Debug("Script changed", "path", event.Name, "op", event.Op.String())

	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.reloads++
	w.mu.Unlock()

	if err := w.reload(); err != nil {
		w.logger.Error("Script reload failed", "error", err)
	}
}
