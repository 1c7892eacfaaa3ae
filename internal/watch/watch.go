// Package watch pushes the local cache to the remote store after the
// cache file changes on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"todo/internal/cache"
	"todo/internal/logging"
	"todo/internal/service"
)

// DefaultDebounce batches rapid edits into one push.
const DefaultDebounce = 500 * time.Millisecond

// Target is what a Watcher reloads and pushes.
type Target interface {
	Reload(ctx context.Context) error
	Push(ctx context.Context) (service.SyncResult, error)
	Status(ctx context.Context) (service.SyncStatus, error)
}

// Watcher watches the cache directory. Every burst of writes to the
// lists file ends in one reload and one push.
type Watcher struct {
	dir      string
	target   Target
	debounce time.Duration
	logger   logging.Logger
	notify   func(service.SyncResult, error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a push.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithNotify is called after every push attempt.
func WithNotify(fn func(service.SyncResult, error)) Option {
	return func(w *Watcher) { w.notify = fn }
}

// New returns a Watcher for the cache stored in dir.
func New(dir string, target Target, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		target:   target,
		debounce: DefaultDebounce,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. A dirty cache is pushed once at
// start. Push failures are logged and reported through the notify
// callback; they do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if w.debounce <= 0 {
		return service.InvalidInput(fmt.Sprintf("debounce must be positive, got %s", w.debounce))
	}
	if err := os.MkdirAll(w.dir, 0700); err != nil {
		return service.StorageError(err.Error())
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return service.StorageError(fmt.Sprintf("failed to create file watcher: %v", err))
	}
	defer fsw.Close()

	// The cache replaces its file by rename, so the directory is watched
	// rather than the file itself.
	if err := fsw.Add(w.dir); err != nil {
		return service.StorageError(fmt.Sprintf("failed to watch %s: %v", w.dir, err))
	}
	w.logger.Info(ctx, "watching", "dir", w.dir, "debounce", w.debounce)

	if status, err := w.target.Status(ctx); err == nil && status.Dirty {
		w.sync(ctx)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "watch stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug(ctx, "cache changed", "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "watch error", "err", err)

		case <-timer.C:
			w.sync(ctx)
		}
	}
}

func (w *Watcher) sync(ctx context.Context) {
	var result service.SyncResult
	err := w.target.Reload(ctx)
	if err == nil {
		result, err = w.target.Push(ctx)
	}
	if err != nil {
		w.logger.Error(ctx, "auto push failed", "err", err)
	} else {
		w.logger.Info(ctx, "auto push", "lists", result.Lists, "items", result.Items)
	}
	if w.notify != nil {
		w.notify(result, err)
	}
}

func relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != cache.ListsFile {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)
}
