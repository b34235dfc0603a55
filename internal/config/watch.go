package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/auto/internal/errors"
)

// DefaultDebounce is how long a Watcher waits after the last file event
// before reloading.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a configuration file when it changes on disk and passes
// every valid result to a callback. Invalid files are logged and skipped.
type Watcher struct {
	path     string
	onReload func(*Config)
	debounce time.Duration
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	reload  chan struct{}
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewWatcher creates a Watcher for path. A debounce of 0 means
// DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, onReload func(*Config)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.New("A021").Wrap(err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.New("A021").WithDetail("Failed to create file watcher").Wrap(err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		path:     abs,
		onReload: onReload,
		debounce: debounce,
		logger:   slog.Default().With("component", "config", "path", abs),
		watcher:  fw,
		reload:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}, nil
}

// Start watches the file's directory, which survives editors that replace
// the file on save, until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return errors.New("A021").WithDetail("Failed to watch " + filepath.Dir(w.path)).Wrap(err)
	}

	w.wg.Add(2)
	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

// Stop stops watching and waits for the watcher goroutines to exit.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		if err := w.watcher.Close(); err != nil {
			w.logger.Debug("closing file watcher", "error", err)
		}
	})
	w.wg.Wait()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()
	name := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Remove) {
				w.logger.Warn("config file removed")
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.trigger()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	defer w.wg.Done()
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-w.reload:
			timer.Reset(w.debounce)
		case <-timer.C:
			cfg, err := LoadFile(w.path)
			if err != nil {
				w.logger.Warn("config reload failed", "error", err)
				continue
			}
			w.logger.Info("config reloaded")
			w.onReload(cfg)
		}
	}
}

// trigger requests a debounced reload.
func (w *Watcher) trigger() {
	select {
	case w.reload <- struct{}{}:
	default:
	}
}
