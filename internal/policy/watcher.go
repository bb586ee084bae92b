package policy

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a changed file is reloaded.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a policy file into a Resolver when it changes. A file that
// fails to load leaves the previous table in place.
type Watcher struct {
	path     string
	resolver *Resolver
	logger   *slog.Logger
	debounce time.Duration
	onReload func(error)

	mu    sync.Mutex
	timer *time.Timer
}

type WatcherOption func(*Watcher)

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithReloadHook is called after every reload attempt with its result.
func WithReloadHook(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

func NewWatcher(path string, resolver *Resolver, logger *slog.Logger, opts ...WatcherOption) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		resolver: resolver,
		logger:   logger,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled. The parent directory is watched rather
// than the file so that editors which save by rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create policy watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch policy directory: %w", err)
	}
	w.logger.InfoContext(ctx, "policy watcher started", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			w.logger.InfoContext(ctx, "policy watcher stopped", "path", w.path)
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("policy watcher events channel closed")
			}
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("policy watcher errors channel closed")
			}
			w.logger.ErrorContext(ctx, "policy watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.Reload(ctx)
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Reload loads the file now and swaps the table on success.
func (w *Watcher) Reload(ctx context.Context) error {
	table, err := LoadFile(w.path)
	if err != nil {
		w.logger.ErrorContext(ctx, "policy reload failed; keeping previous table",
			"path", w.path,
			"error", err,
		)
	} else {
		w.resolver.Replace(table)
		w.logger.InfoContext(ctx, "policy table reloaded",
			"path", w.path,
			"codes", len(table),
		)
	}
	if w.onReload != nil {
		w.onReload(err)
	}
	return err
}
