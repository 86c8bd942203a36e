package types

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors for type validation
var (
	// Search result errors
	ErrInvalidChunkID        = errors.New("invalid chunk ID")
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
	ErrMissingFileInfo       = errors.New("file info is required")
	ErrEmptyContent          = errors.New("content cannot be empty")

	// ErrFileTooLarge is returned when a file exceeds the configured size ceiling
	ErrFileTooLarge = errors.New("file exceeds size limit")
	// ErrUnsupportedLanguage is returned by AST chunkers that have no grammar for a language
	ErrUnsupportedLanguage = errors.New("language not supported")
)

// BinaryFileError is returned when content is not valid UTF-8 text.
type BinaryFileError struct {
	FilePath string
}

func (e *BinaryFileError) Error() string {
	if e.FilePath == "" {
		return "binary content: input is not valid UTF-8"
	}
	return fmt.Sprintf("binary file %s: content is not valid UTF-8", e.FilePath)
}

// ParseError represents a failure to parse or segment a source file.
// Line and Column are zero when the failure has no source position.
type ParseError struct {
	File     string
	Language string
	Line     int
	Column   int
	Message  string
	Err      error
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	msg := pe.Message
	if msg == "" && pe.Err != nil {
		msg = pe.Err.Error()
	}
	if pe.File == "" {
		return msg
	}
	if pe.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", pe.File, pe.Line, pe.Column, msg)
	}
	if pe.Language != "" {
		return fmt.Sprintf("parse %s (%s): %s", pe.File, pe.Language, msg)
	}
	return fmt.Sprintf("parse %s: %s", pe.File, msg)
}

func (pe *ParseError) Unwrap() error {
	return pe.Err
}

// ChunkLimitExceededError is returned when a file produces more chunks than allowed.
type ChunkLimitExceededError struct {
	Count    int
	Limit    int
	FilePath string
}

func (e *ChunkLimitExceededError) Error() string {
	return fmt.Sprintf("chunk limit exceeded for %s: %d chunks (limit %d)", e.FilePath, e.Count, e.Limit)
}

// ChunkingTimeoutError is returned when chunking a file takes longer than its deadline.
type ChunkingTimeoutError struct {
	FilePath string
	Timeout  time.Duration
}

func (e *ChunkingTimeoutError) Error() string {
	return fmt.Sprintf("chunking %s timed out after %s", e.FilePath, e.Timeout)
}

// ASTDepthExceededError is returned when a syntax tree is nested deeper than allowed.
type ASTDepthExceededError struct {
	FilePath string
	Depth    int
	Limit    int
}

func (e *ASTDepthExceededError) Error() string {
	return fmt.Sprintf("AST depth %d exceeds limit %d in %s", e.Depth, e.Limit, e.FilePath)
}
