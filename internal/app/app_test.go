package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dshills/codeweave/internal/config"
	"github.com/dshills/codeweave/internal/storage"
)

func TestNew_OpensDatabase(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "nested", "index.db")

	a, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.FileExists(t, cfg.Storage.DBPath)
	assert.NotNil(t, a.Indexer)
	assert.NotNil(t, a.Selector)
	assert.NotNil(t, a.Classifier)

	ctx := context.Background()
	project := &storage.Project{RootPath: "/src/app", Name: "app"}
	require.NoError(t, a.Storage.CreateProject(ctx, project))
	status, err := a.Storage.GetStatus(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.CurrentSchemaVersion, status.SchemaVersion)
}

func TestNewWithoutStorage(t *testing.T) {
	a, err := NewWithoutStorage(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, a.Storage)
	assert.Nil(t, a.Indexer)
	assert.NoError(t, a.Close())
}

func TestNewWithStorage(t *testing.T) {
	_, err := NewWithStorage(nil, nil, nil)
	assert.Error(t, err)

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	a, err := NewWithStorage(nil, store, nil)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	assert.NotNil(t, a.Indexer)
}

func TestNew_ConfigWiring(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Chunker.Extensions = map[string]string{"tpl": "go"}
	cfg.Chunker.MaxFileSizeMB = 2
	cfg.Classifier.CacheSize = 0
	cfg.Classifier.Overrides = map[string]map[string]string{
		"go": {"go_statement": "FLOW_CONTROL"},
	}
	cfg.Indexer.IncludeVendor = true
	cfg.Indexer.ExcludeDirs = []string{"gen"}

	a, err := NewWithoutStorage(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, "go", a.Registry.Detect("view.tpl"))
	assert.InDelta(t, 2.0, a.Selector.Governor().MaxFileSizeMB, 1e-9)

	ic := a.IndexConfig()
	assert.True(t, ic.IncludeVendor)
	assert.Equal(t, []string{"gen"}, ic.ExcludeDirs)
	assert.Equal(t, cfg.Indexer.BatchSize, ic.BatchSize)
}

func TestNew_InvalidOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Classifier.Overrides = map[string]map[string]string{"go": {"x": "NOT_A_CATEGORY"}}
	_, err := NewWithoutStorage(cfg, nil)
	assert.Error(t, err)
}

func TestResolveDBPath(t *testing.T) {
	got, err := ResolveDBPath(":memory:")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", got)

	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err = ResolveDBPath("~/.codeweave/test.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".codeweave", "test.db"), got)
	info, err := os.Stat(filepath.Dir(got))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSearch_CacheInvalidatedByIndexing(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	a, err := NewWithStorage(nil, store, nil)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	require.NotNil(t, a.Searcher)

	ctx := context.Background()
	root := t.TempDir()
	file := filepath.Join(root, "alpha.go")
	require.NoError(t, os.WriteFile(file, []byte("package demo\n\nfunc Alpha() {}\n"), 0o644))

	_, err = a.IndexProject(ctx, root, a.IndexConfig())
	require.NoError(t, err)
	project, err := a.Storage.GetProject(ctx, root)
	require.NoError(t, err)

	first, err := a.Search(ctx, project.ID, "Alpha", 0, nil)
	require.NoError(t, err)
	require.NotEmpty(t, first.Results)
	assert.False(t, first.CacheHit)

	second, err := a.Search(ctx, project.ID, "Alpha", 0, nil)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)

	// No changes means nothing to invalidate
	_, err = a.IndexProject(ctx, root, a.IndexConfig())
	require.NoError(t, err)
	again, err := a.Search(ctx, project.ID, "Alpha", 0, nil)
	require.NoError(t, err)
	assert.True(t, again.CacheHit)

	require.NoError(t, os.WriteFile(file, []byte("package demo\n\nfunc Alpha() {}\n\nfunc AlphaTwo() { Alpha() }\n"), 0o644))
	_, err = a.IndexProject(ctx, root, a.IndexConfig())
	require.NoError(t, err)

	third, err := a.Search(ctx, project.ID, "Alpha", 0, nil)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
	assert.Greater(t, len(third.Results), len(first.Results))
}

func TestSearch_CacheDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Search.CacheSize = 0
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	a, err := NewWithStorage(cfg, store, nil)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n\nfunc Beta() {}\n"), 0o644))
	_, err = a.IndexProject(ctx, root, a.IndexConfig())
	require.NoError(t, err)
	project, err := a.Storage.GetProject(ctx, root)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		resp, err := a.Search(ctx, project.ID, "Beta", 5, nil)
		require.NoError(t, err)
		assert.False(t, resp.CacheHit)
	}
	assert.Equal(t, 0, a.Searcher.CacheLen())
}
