package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/codeweave/internal/chunker"
	"github.com/dshills/codeweave/internal/indexer"
	"github.com/dshills/codeweave/internal/language"
	"github.com/dshills/codeweave/internal/semantic"
	"github.com/dshills/codeweave/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testDebounce = 50 * time.Millisecond

// fakeIndexer records calls and delegates filtering to a real indexer.
type fakeIndexer struct {
	filter  *indexer.Indexer
	mu      sync.Mutex
	indexed []string
	removed []string
}

func newFakeIndexer() *fakeIndexer {
	sel := chunker.NewSelector(language.NewRegistry(), chunker.DefaultGovernor(), zap.NewNop())
	return &fakeIndexer{filter: indexer.New(sel, nil, nil, zap.NewNop())}
}

func (f *fakeIndexer) IndexFile(_ context.Context, _, filePath string) (*indexer.Statistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, filePath)
	return &indexer.Statistics{FilesIndexed: 1}, nil
}

func (f *fakeIndexer) RemoveFile(_ context.Context, _, filePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, filePath)
	return nil
}

func (f *fakeIndexer) Accepts(rootPath, path string, config *indexer.Config) bool {
	return f.filter.Accepts(rootPath, path, config)
}

func (f *fakeIndexer) calls() (indexed, removed []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.indexed...), append([]string(nil), f.removed...)
}

type flushLog struct {
	ch chan []string
}

func newFlushLog() *flushLog { return &flushLog{ch: make(chan []string, 16)} }

func (l *flushLog) record(indexed, removed []string) {
	l.ch <- append(append([]string(nil), indexed...), removed...)
}

func (l *flushLog) wait(t *testing.T) []string {
	t.Helper()
	select {
	case paths := <-l.ch:
		return paths
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for flush")
		return nil
	}
}

// startWatcher runs w in the background and stops it at test cleanup.
func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	// Let the initial directory walk finish
	time.Sleep(100 * time.Millisecond)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(t.TempDir(), nil, Options{}, nil)
	assert.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing"), newFakeIndexer(), Options{}, nil)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "a.go")
	writeFile(t, file, "package a")
	_, err = New(file, newFakeIndexer(), Options{}, nil)
	assert.Error(t, err)

	w, err := New(t.TempDir(), newFakeIndexer(), Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.opts.Debounce)
	assert.NotNil(t, w.opts.Filter)
}

func TestWatcher_ReindexesChangedFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "main.go")
	writeFile(t, file, "package main")

	fake := newFakeIndexer()
	log := newFlushLog()
	w, err := New(root, fake, Options{Debounce: testDebounce, OnFlush: log.record}, zap.NewNop())
	require.NoError(t, err)
	startWatcher(t, w)

	// A burst of writes is coalesced into one re-index
	for i := 0; i < 5; i++ {
		writeFile(t, file, "package main\n\nfunc main() {}\n")
	}

	assert.Equal(t, []string{file}, log.wait(t))
	indexed, removed := fake.calls()
	assert.Contains(t, indexed, file)
	assert.Empty(t, removed)
}

func TestWatcher_RemovesDeletedFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "gone.py")
	writeFile(t, file, "x = 1\n")

	fake := newFakeIndexer()
	log := newFlushLog()
	w, err := New(root, fake, Options{Debounce: testDebounce, OnFlush: log.record}, zap.NewNop())
	require.NoError(t, err)
	startWatcher(t, w)

	require.NoError(t, os.Remove(file))

	assert.Equal(t, []string{file}, log.wait(t))
	indexed, removed := fake.calls()
	assert.Empty(t, indexed)
	assert.Equal(t, []string{file}, removed)
}

func TestWatcher_NewDirectory(t *testing.T) {
	root := t.TempDir()
	fake := newFakeIndexer()
	log := newFlushLog()
	w, err := New(root, fake, Options{Debounce: testDebounce, OnFlush: log.record}, zap.NewNop())
	require.NoError(t, err)
	startWatcher(t, w)

	file := filepath.Join(root, "pkg", "sub", "lib.go")
	writeFile(t, file, "package sub")

	assert.Eventually(t, func() bool {
		indexed, _ := fake.calls()
		for _, p := range indexed {
			if p == file {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresFilteredPaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))

	core, logs := observer.New(zap.DebugLevel)
	fake := newFakeIndexer()
	log := newFlushLog()
	w, err := New(root, fake, Options{Debounce: testDebounce, OnFlush: log.record}, zap.New(core))
	require.NoError(t, err)
	startWatcher(t, w)

	writeFile(t, filepath.Join(root, "vendor", "dep.go"), "package dep")
	writeFile(t, filepath.Join(root, ".git", "HEAD.go"), "package git")
	writeFile(t, filepath.Join(root, "notes.bin"), "data")
	writeFile(t, filepath.Join(root, "ok.go"), "package ok")

	assert.Equal(t, []string{filepath.Join(root, "ok.go")}, log.wait(t))
	assert.Equal(t, 1, logs.FilterMessage("watching for changes").Len())
	for _, entry := range logs.FilterMessage("change queued").All() {
		assert.Equal(t, filepath.Join(root, "ok.go"), entry.ContextMap()["file"])
	}
}

func TestWatcher_RunTwice(t *testing.T) {
	w, err := New(t.TempDir(), newFakeIndexer(), Options{Debounce: testDebounce}, zap.NewNop())
	require.NoError(t, err)
	startWatcher(t, w)

	assert.ErrorIs(t, w.Run(context.Background()), ErrAlreadyRunning)
}

func TestWatcher_FlushesOnStop(t *testing.T) {
	root := t.TempDir()
	fake := newFakeIndexer()
	w, err := New(root, fake, Options{Debounce: time.Hour}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	file := filepath.Join(root, "late.go")
	writeFile(t, file, "package late")
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		_, ok := w.pending[file]
		return ok
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	indexed, _ := fake.calls()
	assert.Equal(t, []string{file}, indexed)
}

func TestWatcher_EndToEnd(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	classifier, err := semantic.NewClassifier(nil)
	require.NoError(t, err)
	sel := chunker.NewSelector(language.NewRegistry(), chunker.DefaultGovernor(), zap.NewNop())
	idx := indexer.New(sel, classifier, store, zap.NewNop())

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n\nfunc A() {}\n")
	ctx := context.Background()
	_, err = idx.IndexProject(ctx, root, nil)
	require.NoError(t, err)

	log := newFlushLog()
	w, err := New(root, idx, Options{Debounce: testDebounce, OnFlush: log.record}, zap.NewNop())
	require.NoError(t, err)
	startWatcher(t, w)

	writeFile(t, filepath.Join(root, "b.go"), "package a\n\nfunc Brand() {}\n")
	log.wait(t)

	project, err := store.GetProject(ctx, w.Root())
	require.NoError(t, err)
	results, err := store.SearchChunks(ctx, project.ID, "Brand", 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "b.go", results[0].FilePath)
	assert.Equal(t, 2, project.TotalFiles)
}
