// Package watcher re-ingests corpus files when they change on disk.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces bursts of writes to one file into one reload.
const DefaultDebounce = 400 * time.Millisecond

// Handler receives debounced file changes.
type Handler interface {
	// FileChanged is called after a supported file was created or written.
	FileChanged(ctx context.Context, path string)
	// FileRemoved is called after a supported file was removed or renamed away.
	FileRemoved(ctx context.Context, path string)
}

// Matcher reports whether a path should be watched.
type Matcher func(path string) bool

// Watcher watches corpus directories and forwards changes to a Handler.
type Watcher struct {
	roots     []string
	match     Matcher
	recursive bool
	handler   Handler
	debounce  time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the quiet period before a changed file is reloaded.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over roots. A nil match accepts every file.
func New(roots []string, match Matcher, recursive bool, handler Handler, opts ...Option) *Watcher {
	if match == nil {
		match = func(string) bool { return true }
	}
	w := &Watcher{
		roots:     roots,
		match:     match,
		recursive: recursive,
		handler:   handler,
		debounce:  DefaultDebounce,
		logger:    zap.NewNop(),
		pending:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns once every root is registered; events are
// handled on a background goroutine until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return errors.New("watcher already started")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := w.addTree(fsw, filepath.Clean(root)); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx, fsw)
	w.logger.Debug("watcher started", zap.Strings("roots", w.roots), zap.Bool("recursive", w.recursive))
	return nil
}

// addTree registers root and, when recursive, its subdirectories. Missing roots are created.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !w.recursive {
		return fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	path := ev.Name
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if w.recursive {
				if err := w.addTree(fsw, path); err != nil {
					w.logger.Warn("failed to watch new directory", zap.String("path", path), zap.Error(err))
				}
				w.syncDir(ctx, path)
			}
			return
		}
		if w.match(path) {
			w.schedule(ctx, path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancelPending(path)
		if w.match(path) {
			w.handler.FileRemoved(ctx, path)
		}
	}
}

// schedule reloads path once no further events arrive for the debounce period.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.handler.FileChanged(ctx, path)
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) syncDir(ctx context.Context, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if w.match(path) {
			w.handler.FileChanged(ctx, path)
		}
		return nil
	})
}

// Stop stops watching, cancels pending reloads and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.cancel()
	_ = w.fsw.Close()
	w.fsw = nil
	w.mu.Unlock()
	w.wg.Wait()
}
