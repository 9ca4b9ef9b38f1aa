// Package watcher keeps the document store in step with the content
// directories on disk, using fsnotify with per-file debouncing.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches content roots and invokes callbacks when documents
// appear, change, or disappear. Writes are debounced so editors that
// save in several bursts trigger a single sync.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	onSync     func(path string)
	onRemove   func(path string)
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	started bool

	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the write-coalescing delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher over the given content roots. extensions filters
// which files are reported (empty means all). onSync and onRemove receive
// absolute-ish paths as fsnotify delivers them.
func New(roots []string, extensions []string, recursive bool, onSync, onRemove func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		roots:      roots,
		extensions: extensions,
		recursive:  recursive,
		onSync:     onSync,
		onRemove:   onRemove,
		debounce:   defaultDebounce,
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns once the roots are registered; event
// handling runs in a goroutine until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher starting",
			zap.Strings("roots", w.roots),
			zap.Strings("extensions", w.extensions),
			zap.Bool("recursive", w.recursive))
	}
	for _, root := range w.roots {
		if err := w.watchRootLocked(root); err != nil {
			_ = w.fsw.Close()
			w.fsw = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := ev.Name
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			w.watchNewDirectory(path)
			return
		}
		if w.matches(path) {
			w.scheduleSync(path)
		}
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		w.cancelPending(path)
		if w.matches(path) && w.onRemove != nil {
			w.onRemove(path)
		}
	}
}

// watchNewDirectory registers a directory created after Start and syncs
// any documents already inside it (created by a move, for example).
func (w *Watcher) watchNewDirectory(dir string) {
	w.mu.Lock()
	recursive := w.recursive
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return
	}
	if recursive {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if addErr := fsw.Add(path); addErr != nil && w.logger != nil {
				w.logger.Debug("watcher add failed", zap.String("path", path), zap.Error(addErr))
			}
			return nil
		})
	} else if err := fsw.Add(dir); err != nil && w.logger != nil {
		w.logger.Debug("watcher add failed", zap.String("path", dir), zap.Error(err))
	}
	w.syncTree(dir)
}

func (w *Watcher) watchRootLocked(root string) error {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(root, 0755); err != nil {
			return err
		}
	}
	if !w.recursive {
		return w.fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// SyncExisting reports every matching file already present under the
// watched roots. Call it after Start to pick up documents written while
// the process was down.
func (w *Watcher) SyncExisting() {
	w.mu.Lock()
	roots := append([]string(nil), w.roots...)
	w.mu.Unlock()
	for _, root := range roots {
		w.syncTree(root)
	}
}

func (w *Watcher) syncTree(root string) {
	w.mu.Lock()
	onSync := w.onSync
	w.mu.Unlock()
	if onSync == nil {
		return
	}
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if w.matches(path) {
			onSync(path)
		}
		return nil
	})
}

func (w *Watcher) matches(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func (w *Watcher) scheduleSync(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if w.logger != nil {
			w.logger.Debug("watcher syncing file", zap.String("path", path))
		}
		if w.onSync != nil {
			w.onSync(path)
		}
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

// Stop stops the watcher and releases the underlying fsnotify handle.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
