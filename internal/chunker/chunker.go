package chunker

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/codeweave/internal/delimiter"
	"github.com/dshills/codeweave/pkg/types"
)

const (
	// DefaultMaxChunks is the per-file chunk ceiling
	DefaultMaxChunks = 5000

	// DefaultMaxFileSizeMB is the largest file that will be chunked
	DefaultMaxFileSizeMB = 10

	// DefaultChunkTimeout bounds the time spent chunking one file
	DefaultChunkTimeout = 30 * time.Second

	// DefaultMaxASTDepth bounds syntax tree recursion in the AST chunkers
	DefaultMaxASTDepth = 512

	// DefaultImportanceThreshold is the score a chunk's category must reach
	// on at least one retrieval task for the chunk to be indexed
	DefaultImportanceThreshold = 0.3
)

// Chunker divides the content of one file into chunks. Implementations are
// not safe for reuse across files; callers construct a fresh instance per
// file through a Selector.
type Chunker interface {
	Chunk(ctx context.Context, content []byte, filePath string, extra map[string]any) ([]*types.Chunk, error)
	Name() string
}

// Governor carries the limits and overrides every chunker honours.
// It is treated as read-only once handed to a chunker.
type Governor struct {
	MaxChunks           int
	MaxFileSizeMB       float64
	ChunkTimeout        time.Duration
	MaxASTDepth         int
	CustomDelimiters    map[string][]delimiter.Pattern
	ImportanceThreshold float64
}

// DefaultGovernor returns a Governor with every limit at its default.
func DefaultGovernor() Governor {
	return Governor{
		MaxChunks:           DefaultMaxChunks,
		MaxFileSizeMB:       DefaultMaxFileSizeMB,
		ChunkTimeout:        DefaultChunkTimeout,
		MaxASTDepth:         DefaultMaxASTDepth,
		ImportanceThreshold: DefaultImportanceThreshold,
	}
}

// withDefaults fills zero-valued limits from DefaultGovernor.
func (g Governor) withDefaults() Governor {
	d := DefaultGovernor()
	if g.MaxChunks <= 0 {
		g.MaxChunks = d.MaxChunks
	}
	if g.MaxFileSizeMB <= 0 {
		g.MaxFileSizeMB = d.MaxFileSizeMB
	}
	if g.ChunkTimeout <= 0 {
		g.ChunkTimeout = d.ChunkTimeout
	}
	if g.MaxASTDepth <= 0 {
		g.MaxASTDepth = d.MaxASTDepth
	}
	if g.ImportanceThreshold <= 0 {
		g.ImportanceThreshold = d.ImportanceThreshold
	}
	return g
}

// MaxFileSizeBytes converts the size ceiling to bytes.
func (g Governor) MaxFileSizeBytes() int64 {
	return int64(g.MaxFileSizeMB * 1024 * 1024)
}

// customPatterns returns the caller-supplied patterns for language.
func (g Governor) customPatterns(language string) []delimiter.Pattern {
	if len(g.CustomDelimiters) == 0 {
		return nil
	}
	if p, ok := g.CustomDelimiters[language]; ok {
		return p
	}
	return g.CustomDelimiters[strings.ToLower(language)]
}

// lineIndex maps byte offsets to 1-indexed line numbers.
type lineIndex []int

func newLineIndex(content string) lineIndex {
	var nl lineIndex
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			nl = append(nl, i)
		}
	}
	return nl
}

// lineOf returns the line containing offset. A newline belongs to the line
// it terminates.
func (li lineIndex) lineOf(offset int) int {
	return sort.SearchInts(li, offset) + 1
}

func newChunkID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// newChunk builds a chunk and stamps identity and provenance. fields are
// chunker-specific context entries; extra is merged last so callers can
// override them.
func newChunk(content, filePath, language string, lines types.LineRange, name string, fields, extra map[string]any) *types.Chunk {
	ctx := make(map[string]any, len(fields)+len(extra)+1)
	ctx[types.ContextContentHash] = types.HashContentHex(content)
	for k, v := range fields {
		ctx[k] = v
	}
	for k, v := range extra {
		ctx[k] = v
	}
	return &types.Chunk{
		Content:   content,
		LineRange: lines,
		FilePath:  filePath,
		Language:  language,
		Metadata: types.ChunkMetadata{
			ChunkID:   newChunkID(),
			CreatedAt: time.Now(),
			Name:      name,
			Context:   ctx,
		},
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
