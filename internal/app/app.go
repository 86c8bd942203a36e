// Package app wires configuration, storage and the chunk/classify/index
// pipeline together. The CLI and the MCP server both start from an App.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/codeweave/internal/chunker"
	"github.com/dshills/codeweave/internal/config"
	"github.com/dshills/codeweave/internal/indexer"
	"github.com/dshills/codeweave/internal/language"
	"github.com/dshills/codeweave/internal/searcher"
	"github.com/dshills/codeweave/internal/semantic"
	"github.com/dshills/codeweave/internal/storage"
)

// App is the top-level container wiring all components together.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Registry   *language.Registry
	Selector   *chunker.Selector
	Classifier *semantic.Classifier
	Indexer    *indexer.Indexer
	Searcher   *searcher.Searcher

	// Storage is nil for apps built with NewWithoutStorage.
	Storage storage.Storage
}

// New builds the pipeline and opens the database at cfg.Storage.DBPath.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a, err := NewWithoutStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	dbPath, err := ResolveDBPath(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := a.attach(store); err != nil {
		_ = store.Close()
		return nil, err
	}

	a.Logger.Debug("storage opened",
		zap.String("db_path", dbPath),
		zap.String("driver", storage.DriverName),
		zap.String("build_mode", storage.BuildMode))
	return a, nil
}

// NewWithStorage builds the pipeline around an already opened store.
func NewWithStorage(cfg *config.Config, store storage.Storage, logger *zap.Logger) (*App, error) {
	if store == nil {
		return nil, errors.New("storage is required")
	}
	a, err := NewWithoutStorage(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.attach(store); err != nil {
		return nil, err
	}
	return a, nil
}

// NewWithoutStorage builds the chunker and classifier only. Commands that
// never touch the index use it to avoid creating a database.
func NewWithoutStorage(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	gov, err := cfg.Governor()
	if err != nil {
		return nil, err
	}
	overrides, err := cfg.Classifier.Registry()
	if err != nil {
		return nil, err
	}

	opts := []semantic.Option{semantic.WithLogger(logger.Named("semantic"))}
	if cfg.Classifier.CacheSize > 0 {
		opts = append(opts, semantic.WithCache(cfg.Classifier.CacheSize))
	}
	classifier, err := semantic.NewClassifier(overrides, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}

	registry := language.NewRegistry()
	if len(cfg.Chunker.Extensions) > 0 {
		registry = registry.WithMappings(cfg.Chunker.Extensions)
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Registry:   registry,
		Selector:   chunker.NewSelector(registry, gov, logger.Named("chunker")),
		Classifier: classifier,
	}, nil
}

func (a *App) attach(store storage.Storage) error {
	s, err := searcher.NewSearcher(store, a.Config.Search.CacheSize)
	if err != nil {
		return err
	}
	a.Storage = store
	a.Indexer = indexer.New(a.Selector, a.Classifier, store, a.Logger.Named("indexer"))
	a.Searcher = s
	return nil
}

// Search runs a keyword search, using the query cache unless
// search.cache_size is 0.
func (a *App) Search(ctx context.Context, projectID int64, query string, limit int, filters *storage.SearchFilters) (*searcher.SearchResponse, error) {
	return a.Searcher.Search(ctx, searcher.SearchRequest{
		ProjectID: projectID,
		Query:     query,
		Limit:     limit,
		Filters:   filters,
		UseCache:  a.Config.Search.CacheSize > 0,
		CacheTTL:  a.Config.Search.GetCacheTTL(),
	})
}

// IndexProject indexes root and drops cached search results.
func (a *App) IndexProject(ctx context.Context, root string, config *indexer.Config) (*indexer.Statistics, error) {
	stats, err := a.Indexer.IndexProject(ctx, root, config)
	if stats != nil && stats.FilesIndexed+stats.FilesRemoved > 0 {
		a.Searcher.InvalidateCache()
	}
	return stats, err
}

// IndexConfig converts the indexer section of the configuration.
func (a *App) IndexConfig() *indexer.Config {
	c := a.Config.Indexer
	return &indexer.Config{
		Workers:       c.Workers,
		BatchSize:     c.BatchSize,
		IncludeTests:  c.IncludeTests,
		IncludeVendor: c.IncludeVendor,
		ExcludeDirs:   c.ExcludeDirs,
	}
}

// Close releases the database, if one is open.
func (a *App) Close() error {
	if a.Storage == nil {
		return nil
	}
	return a.Storage.Close()
}

// ResolveDBPath expands a leading ~ and creates the parent directory.
// ":memory:" is returned unchanged.
func ResolveDBPath(path string) (string, error) {
	if path == "" {
		path = config.DefaultConfig().Storage.DBPath
	}
	if path == ":memory:" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return path, nil
}
