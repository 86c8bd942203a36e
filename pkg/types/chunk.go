package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Context keys stamped on every chunk by the chunkers.
const (
	ContextChunkerType    = "chunker_type"
	ContextContentHash    = "content_hash"
	ContextDelimiterKind  = "delimiter_kind"
	ContextDelimiterStart = "delimiter_start"
	ContextDelimiterEnd   = "delimiter_end"
	ContextPriority       = "priority"
	ContextNestingLevel   = "nesting_level"
	ContextLanguageFamily = "language_family"
	ContextNodeType       = "node_type"
	ContextSymbolKind     = "symbol_kind"
	ContextSymbolName     = "symbol_name"
	ContextCategory       = "category"
	ContextConfidence     = "confidence"
)

// TokensPerChar is the heuristic used for token estimates (chars/4)
const TokensPerChar = 4

// LineRange is a 1-indexed, inclusive range of source lines.
type LineRange struct {
	Start int
	End   int
}

// Lines returns the number of lines covered by the range
func (r LineRange) Lines() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// ChunkMetadata carries identity and provenance for a chunk.
type ChunkMetadata struct {
	ChunkID   string
	CreatedAt time.Time
	Name      string
	Context   map[string]any
}

// Chunk is a bounded, semantically labeled section of a source file.
// Chunks are created once by a chunker and never mutated afterwards.
type Chunk struct {
	Content   string
	LineRange LineRange
	FilePath  string
	Language  string
	Metadata  ChunkMetadata
}

// Validate checks the structural invariants of a chunk
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return ErrEmptyContent
	}

	if c.LineRange.Start <= 0 || c.LineRange.End <= 0 {
		return errors.New("line numbers must be positive")
	}

	if c.LineRange.Start > c.LineRange.End {
		return errors.New("start line must be before or equal to end line")
	}

	if c.Metadata.ChunkID == "" {
		return errors.New("chunk ID is required")
	}

	return nil
}

// ContentHash computes the SHA-256 hash of the chunk content
func (c *Chunk) ContentHash() [32]byte {
	return HashContent(c.Content)
}

// TokenCount estimates the number of tokens in the chunk
func (c *Chunk) TokenCount() int {
	return len(c.Content) / TokensPerChar
}

// ContextString returns a string value from the chunk context, or "" when absent.
func (c *Chunk) ContextString(key string) string {
	if c.Metadata.Context == nil {
		return ""
	}
	if s, ok := c.Metadata.Context[key].(string); ok {
		return s
	}
	return ""
}

// ContextInt returns an int value from the chunk context.
func (c *Chunk) ContextInt(key string) (int, bool) {
	if c.Metadata.Context == nil {
		return 0, false
	}
	switch v := c.Metadata.Context[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// HashContent returns the SHA-256 digest of content.
func HashContent(content string) [32]byte {
	return sha256.Sum256([]byte(content))
}

// HashContentHex returns the hex-encoded SHA-256 digest of content.
func HashContentHex(content string) string {
	sum := HashContent(content)
	return hex.EncodeToString(sum[:])
}
