package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/codeweave/internal/indexer"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// ErrAlreadyRunning is returned when Run is called twice on one Watcher.
var ErrAlreadyRunning = errors.New("watcher already running")

// Indexer is the part of the indexing pipeline the watcher drives.
// *indexer.Indexer satisfies it.
type Indexer interface {
	IndexFile(ctx context.Context, rootPath, filePath string) (*indexer.Statistics, error)
	RemoveFile(ctx context.Context, rootPath, filePath string) error
	Accepts(rootPath, path string, config *indexer.Config) bool
}

// Options configures a Watcher.
type Options struct {
	// Debounce is how long the tree must be quiet before pending changes
	// are flushed to the indexer.
	Debounce time.Duration

	// Filter decides which directories are skipped and which files count.
	// Nil means indexer.DefaultConfig().
	Filter *indexer.Config

	// OnFlush, when set, is called after every flush with the paths handled.
	OnFlush func(indexed, removed []string)
}

// Watcher re-indexes files of one project root as they change on disk.
type Watcher struct {
	root    string
	idx     Indexer
	opts    Options
	logger  *zap.Logger
	fw      *fsnotify.Watcher
	mu      sync.Mutex
	running bool
	pending map[string]struct{}
}

// New creates a watcher for rootPath. The project must already be indexed.
func New(rootPath string, idx Indexer, opts Options, logger *zap.Logger) (*Watcher, error) {
	if idx == nil {
		return nil, errors.New("indexer is required")
	}
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absRoot)
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Filter == nil {
		opts.Filter = indexer.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		root:    absRoot,
		idx:     idx,
		opts:    opts,
		logger:  logger.With(zap.String("root", absRoot)),
		pending: make(map[string]struct{}),
	}, nil
}

// Root returns the absolute project root being watched.
func (w *Watcher) Root() string { return w.root }

// Run watches the tree until ctx is cancelled. Pending changes are flushed
// before Run returns. The returned error is nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w.fw = fw
	defer func() { _ = fw.Close() }()

	if err := w.addTree(w.root, false); err != nil {
		return err
	}
	w.logger.Info("watching for changes", zap.Duration("debounce", w.opts.Debounce))

	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// ctx is already done; flush with a fresh context so queued
			// changes are not lost.
			w.flush(context.WithoutCancel(ctx))
			w.logger.Info("watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				timer.Reset(w.opts.Debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// handleEvent records the event and reports whether anything was queued.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.skipDir(path) {
				return false
			}
			// Files can land in a new directory before it is watched.
			if err := w.addTree(path, true); err != nil {
				w.logger.Warn("failed to watch directory", zap.String("dir", path), zap.Error(err))
			}
			return true
		}
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if !w.idx.Accepts(w.root, path, w.opts.Filter) {
		return false
	}

	w.mu.Lock()
	w.pending[path] = struct{}{}
	w.mu.Unlock()
	w.logger.Debug("change queued", zap.String("file", path), zap.String("op", event.Op.String()))
	return true
}

// addTree watches dir and every non-skipped directory below it. When queue
// is set, files already present are queued for indexing.
func (w *Watcher) addTree(dir string, queue bool) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Vanished or unreadable entries are not fatal
			return nil
		}
		if d.IsDir() {
			if path != w.root && w.skipDir(path) {
				return filepath.SkipDir
			}
			if err := w.fw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			return nil
		}
		if queue && w.idx.Accepts(w.root, path, w.opts.Filter) {
			w.mu.Lock()
			w.pending[path] = struct{}{}
			w.mu.Unlock()
		}
		return nil
	})
}

// skipDir reports whether a directory is filtered out. A placeholder file
// name is used so the indexer's directory rules apply without the extension
// check getting in the way.
func (w *Watcher) skipDir(dir string) bool {
	return !w.idx.Accepts(w.root, filepath.Join(dir, "probe.go"), w.opts.Filter)
}

// flush hands every pending path to the indexer. Paths that still exist are
// re-indexed; the rest are removed.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()
	sort.Strings(paths)

	var indexed, removed []string
	for _, path := range paths {
		info, err := os.Stat(path)
		switch {
		case err == nil && info.Mode().IsRegular():
			stats, err := w.idx.IndexFile(ctx, w.root, path)
			if err != nil {
				w.logger.Error("failed to re-index file", zap.String("file", path), zap.Error(err))
				continue
			}
			if stats.FilesFailed > 0 {
				w.logger.Warn("file failed to chunk", zap.String("file", path), zap.Strings("errors", stats.ErrorMessages))
			}
			indexed = append(indexed, path)

		case err != nil && errors.Is(err, os.ErrNotExist):
			if err := w.idx.RemoveFile(ctx, w.root, path); err != nil {
				w.logger.Error("failed to remove file", zap.String("file", path), zap.Error(err))
				continue
			}
			removed = append(removed, path)
		}
	}

	w.logger.Info("applied changes",
		zap.Int("indexed", len(indexed)),
		zap.Int("removed", len(removed)))
	if w.opts.OnFlush != nil {
		w.opts.OnFlush(indexed, removed)
	}
}
