package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/Dicklesworthstone/vselect/pkg/model"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"
)

// LoadFunc produces a fresh option list
type LoadFunc func(ctx context.Context) (model.Options, error)

// Reload is the outcome of one load
type Reload struct {
	Options model.Options
	Err     error
	// Shared is set when the result was coalesced with a concurrent load
	Shared bool
	At     time.Time
}

// Watcher reloads options when the watched file is written, created or
// replaced. Bursts of events are debounced and concurrent loads coalesced.
type Watcher struct {
	path   string
	load   LoadFunc
	logger *slog.Logger

	debouncer *Debouncer
	group     singleflight.Group
	fs        *fsnotify.Watcher

	changes chan Reload

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce sets the debounce window
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debouncer = NewDebouncer(d) }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher for path. Nothing is watched until Start.
func New(path string, load LoadFunc, opts ...Option) *Watcher {
	w := &Watcher{
		path:      filepath.Clean(path),
		load:      load,
		logger:    slog.Default(),
		debouncer: NewDebouncer(DefaultDebounce),
		changes:   make(chan Reload, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path returns the watched file
func (w *Watcher) Path() string {
	return w.path
}

// Changes delivers reloads triggered by file events. Only the newest
// undelivered reload is kept.
func (w *Watcher) Changes() <-chan Reload {
	return w.changes
}

// Start begins watching. The parent directory is watched so editors that
// replace the file by rename are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(w.path)); err != nil {
		fs.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.fs = fs
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.loop()
	w.logger.Debug("watching option source", "path", w.path)
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			w.debouncer.Cancel()
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.debouncer.Trigger(w.reloadAndPublish)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("option watcher error", "err", err)
		}
	}
}

func (w *Watcher) reloadAndPublish() {
	r := w.Reload(w.ctx)
	if w.ctx.Err() != nil {
		return
	}
	// drop an unread older reload so the newest wins
	select {
	case <-w.changes:
	default:
	}
	select {
	case w.changes <- r:
	case <-w.ctx.Done():
	}
}

// Reload loads the options now. Concurrent calls share one load.
func (w *Watcher) Reload(ctx context.Context) Reload {
	v, err, shared := w.group.Do(w.path, func() (any, error) {
		return w.load(ctx)
	})
	r := Reload{Err: err, Shared: shared, At: time.Now()}
	if opts, ok := v.(model.Options); ok {
		r.Options = opts
	}
	if err != nil {
		w.logger.Warn("option reload failed", "path", w.path, "err", err)
	} else {
		w.logger.Info("options reloaded", "path", w.path, "count", len(r.Options), "shared", shared)
	}
	return r
}

// Close stops watching and waits for the event loop to exit
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
		if w.fs != nil {
			err = w.fs.Close()
		}
		w.wg.Wait()
	})
	return err
}
