// Package watch re-runs a callback when watched files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is the quiet period after the last event before the
// callback fires.
const DefaultDebounce = 300 * time.Millisecond

// Func is invoked with the file that triggered it, or "" for the initial
// run. Calls never overlap.
type Func func(ctx context.Context, changed string) error

// Config configures a Watcher. The parent directories of Paths are
// watched rather than the files themselves, so files replaced by rename
// are still seen. Initial runs the callback once before any event arrives.
type Config struct {
	Paths    []string
	Debounce time.Duration
	Initial  bool
	Logger   *slog.Logger
	OnChange Func
}

// Watcher debounces file events into serial callback invocations.
type Watcher struct {
	paths    []string
	debounce time.Duration
	initial  bool
	logger   *slog.Logger
	onChange Func
}

// New creates a Watcher.
func New(cfg Config) *Watcher {
	w := &Watcher{
		paths:    cfg.Paths,
		debounce: cfg.Debounce,
		initial:  cfg.Initial,
		logger:   cfg.Logger,
		onChange: cfg.OnChange,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	return w
}

// Run blocks until ctx is cancelled. Callback errors are logged and do
// not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if w.onChange == nil {
		return errors.New("watch: no callback configured")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	tracked := make(map[string]struct{}, len(w.paths))
	dirs := make(map[string]struct{})
	for _, p := range w.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		tracked[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.logger.Debug("watching directory", slog.String("dir", dir))
	}

	// Capacity one: a pending trigger absorbs any later ones until the
	// dispatcher picks it up.
	triggers := make(chan string, 1)
	if w.initial {
		triggers <- ""
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return w.collect(egctx, fw, tracked, triggers)
	})
	eg.Go(func() error {
		return w.dispatch(egctx, triggers)
	})
	return eg.Wait()
}

func (w *Watcher) collect(ctx context.Context, fw *fsnotify.Watcher, tracked map[string]struct{}, triggers chan<- string) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)
			if _, ok := tracked[name]; !ok {
				continue
			}

			pending = name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case triggers <- pending:
			default:
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, triggers <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case name := <-triggers:
			w.logger.Debug("change detected", slog.String("file", name))
			if err := w.onChange(ctx, name); err != nil {
				w.logger.Error("watch callback failed", slog.String("file", name), slog.Any("error", err))
			}
		}
	}
}
