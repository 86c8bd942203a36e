// Package types provides shared type definitions for codeweave.
//
// This package defines the domain types passed between the chunkers, the
// classifier, the indexer and storage: chunks, parse results, symbols
// and the typed errors raised while chunking.
//
// # Chunks
//
// Chunk is a bounded section of a source file with a 1-indexed inclusive
// line range and metadata. The metadata context map carries provenance such
// as the chunker that produced it and the SHA-256 content hash:
//
//	chunk.ContextString(types.ContextChunkerType) // "delimiter", "go_ast", "tree_sitter"
//	chunk.ContextString(types.ContextContentHash) // hex digest of chunk.Content
//
// Chunks are created once by a chunker and are never mutated afterwards.
//
// # Errors
//
// Chunking failures are typed so callers can branch with errors.As:
//
//	var binErr *types.BinaryFileError
//	if errors.As(err, &binErr) {
//	    // skip the file, it is not text
//	}
//
// ParseError triggers fallback to the delimiter chunker, while
// BinaryFileError and ChunkLimitExceededError are fatal for the file.
package types
