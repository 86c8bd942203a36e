package chunker

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/dshills/codeweave/internal/language"
	"github.com/dshills/codeweave/pkg/types"
)

// GracefulChunker runs Primary and, if it fails for any reason, runs
// Fallback once on the same input. Fallback errors are returned unchanged.
type GracefulChunker struct {
	Primary  Chunker
	Fallback Chunker
	logger   *zap.Logger
}

// NewGracefulChunker wraps a primary and fallback chunker pair.
func NewGracefulChunker(primary, fallback Chunker, logger *zap.Logger) *GracefulChunker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GracefulChunker{Primary: primary, Fallback: fallback, logger: logger}
}

// Name implements Chunker.
func (g *GracefulChunker) Name() string {
	return g.Primary.Name() + "+" + g.Fallback.Name()
}

// Chunk implements Chunker.
func (g *GracefulChunker) Chunk(ctx context.Context, content []byte, filePath string, extra map[string]any) ([]*types.Chunk, error) {
	chunks, err := g.Primary.Chunk(ctx, content, filePath, extra)
	if err == nil {
		return chunks, nil
	}
	g.logger.Warn("primary chunker failed, falling back",
		zap.String("error_type", fmt.Sprintf("%T", err)),
		zap.String("message", err.Error()),
		zap.String("file", filePath),
		zap.String("primary", g.Primary.Name()),
		zap.String("fallback", g.Fallback.Name()))

	return g.Fallback.Chunk(ctx, content, filePath, extra)
}

// Selector picks a chunking strategy per file. It builds new chunker
// instances on every call so no parser or cache state crosses files.
type Selector struct {
	registry *language.Registry
	gov      Governor
	logger   *zap.Logger
}

// NewSelector creates a Selector. A nil registry uses the built-in table.
func NewSelector(registry *language.Registry, gov Governor, logger *zap.Logger) *Selector {
	if registry == nil {
		registry = language.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{registry: registry, gov: gov.withDefaults(), logger: logger}
}

// Governor returns the limits the selector hands to its chunkers.
func (s *Selector) Governor() Governor { return s.gov }

// Registry returns the language registry used for detection.
func (s *Selector) Registry() *language.Registry { return s.registry }

// DetectLanguage returns the language of path.
func (s *Selector) DetectLanguage(path string) string {
	return s.registry.Detect(path)
}

// SelectForFile returns a fresh chunker for path. AST-capable languages get
// their AST chunker wrapped with a delimiter fallback; everything else gets
// a delimiter chunker.
func (s *Selector) SelectForFile(path string) Chunker {
	return s.SelectForLanguage(s.registry.Detect(path))
}

// SelectForLanguage is SelectForFile for a known language.
func (s *Selector) SelectForLanguage(lang string) Chunker {
	fallback := NewDelimiterChunker(lang, s.gov, s.logger)
	if !s.registry.IsASTCapable(lang) {
		return fallback
	}

	var primary Chunker
	if lang == language.Go {
		primary = NewGoASTChunker(s.gov)
	} else {
		ts, err := NewTreeSitterChunker(lang, s.gov)
		if err != nil {
			s.logger.Warn("AST chunker unavailable, using delimiter chunker",
				zap.String("language", lang),
				zap.Error(err))
			return fallback
		}
		primary = ts
	}
	return NewGracefulChunker(primary, fallback, s.logger)
}

// ChunkFile reads and chunks one file, enforcing the size ceiling and the
// per-file timeout.
func (s *Selector) ChunkFile(ctx context.Context, path string, extra map[string]any) ([]*types.Chunk, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := s.checkSize(path, info.Size()); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s.ChunkContent(ctx, content, path, extra)
}

// ChunkContent chunks content already in memory as if it came from path.
func (s *Selector) ChunkContent(ctx context.Context, content []byte, path string, extra map[string]any) ([]*types.Chunk, error) {
	return s.ChunkAs(ctx, content, path, s.registry.Detect(path), extra)
}

// ChunkAs chunks content as the given language, bypassing detection.
func (s *Selector) ChunkAs(ctx context.Context, content []byte, path, lang string, extra map[string]any) ([]*types.Chunk, error) {
	if err := s.checkSize(path, int64(len(content))); err != nil {
		return nil, err
	}

	return s.chunkWith(ctx, s.SelectForLanguage(lang), content, path, extra)
}

// checkSize logs and rejects content above the size ceiling
func (s *Selector) checkSize(path string, size int64) error {
	limit := s.gov.MaxFileSizeBytes()
	if size <= limit {
		return nil
	}
	s.logger.Info("skipping oversized file",
		zap.String("file", path),
		zap.Int64("size", size),
		zap.Int64("limit", limit))
	return fmt.Errorf("%s (%d bytes): %w", path, size, types.ErrFileTooLarge)
}

// chunkWith runs c under the per-file deadline.
func (s *Selector) chunkWith(ctx context.Context, c Chunker, content []byte, path string, extra map[string]any) ([]*types.Chunk, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gov.ChunkTimeout)
	defer cancel()

	chunks, err := c.Chunk(ctx, content, path, extra)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("chunking timed out",
				zap.String("file", path),
				zap.String("chunker", c.Name()),
				zap.Duration("timeout", s.gov.ChunkTimeout))
			return nil, &types.ChunkingTimeoutError{FilePath: path, Timeout: s.gov.ChunkTimeout}
		}
		return nil, err
	}
	return chunks, nil
}
