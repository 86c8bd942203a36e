package storage

import (
	"context"
	"time"

	"github.com/dshills/codeweave/pkg/types"
)

// Storage defines the interface for persisting and querying classified chunks
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, projectID int64, filePath string) (*File, error)
	GetFileByID(ctx context.Context, fileID int64) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, projectID int64) ([]*File, error)

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error)
	DeleteChunk(ctx context.Context, chunkID int64) error
	DeleteChunksByFile(ctx context.Context, fileID int64) error

	// Search operations
	SearchChunks(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]SearchResult, error)

	// Status operations
	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Project represents an indexed source tree
type Project struct {
	ID            int64
	RootPath      string
	Name          string
	TotalFiles    int
	TotalChunks   int
	IndexVersion  string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// File represents a source file in the index
type File struct {
	ID            int64
	ProjectID     int64
	FilePath      string
	Language      string
	ChunkerType   string
	ContentHash   [32]byte
	ModTime       time.Time
	SizeBytes     int64
	ParseError    *string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Chunk is a stored chunk together with its classification
type Chunk struct {
	ID          int64
	FileID      int64
	ChunkUUID   string
	Name        string
	Language    string
	ChunkerType string
	NodeType    string
	Category    string
	Confidence  float64
	Phase       string
	Importance  float64
	StartLine   int
	EndLine     int
	Content     string
	ContentHash [32]byte
	Context     map[string]any
	CreatedAt   time.Time
}

// SearchFilters narrows keyword search results
type SearchFilters struct {
	Language      string
	Category      string
	FilePattern   string // GLOB pattern on the relative file path
	MinConfidence float64
	MinRelevance  float64
}

// SearchResult is a chunk matched by keyword search
type SearchResult struct {
	Chunk    *Chunk
	FilePath string
	Score    float64 // normalized BM25, higher is better
}

// ProjectStatus contains statistics about an indexed project
type ProjectStatus struct {
	Project           *Project
	FilesCount        int
	FailedFiles       int
	ChunksCount       int
	HighConfidence    int
	AverageConfidence float64
	CategoryCounts    map[string]int
	LanguageCounts    map[string]int
	IndexSizeMB       float64
	LastIndexedAt     time.Time
	SchemaVersion     string
	BuildMode         string
	Health            HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexesBuilt    bool
}

// HighConfidenceMark is the confidence at or above which a stored
// classification counts as high confidence in status reports.
const HighConfidenceMark = 0.8

// FromTypesChunk converts a chunker chunk into a storage row for fileID.
// Classification columns are read from the chunk context when present.
func FromTypesChunk(c *types.Chunk, fileID int64) *Chunk {
	row := &Chunk{
		FileID:      fileID,
		ChunkUUID:   c.Metadata.ChunkID,
		Name:        c.Metadata.Name,
		Language:    c.Language,
		ChunkerType: c.ContextString(types.ContextChunkerType),
		NodeType:    c.ContextString(types.ContextNodeType),
		Category:    c.ContextString(types.ContextCategory),
		StartLine:   c.LineRange.Start,
		EndLine:     c.LineRange.End,
		Content:     c.Content,
		ContentHash: c.ContentHash(),
		Context:     c.Metadata.Context,
		CreatedAt:   c.Metadata.CreatedAt,
	}
	if conf, ok := c.Metadata.Context[types.ContextConfidence].(float64); ok {
		row.Confidence = conf
	}
	return row
}

// ToTypesChunk converts a storage row back into a chunk for filePath
func (c *Chunk) ToTypesChunk(filePath string) types.Chunk {
	return types.Chunk{
		Content: c.Content,
		LineRange: types.LineRange{
			Start: c.StartLine,
			End:   c.EndLine,
		},
		FilePath: filePath,
		Language: c.Language,
		Metadata: types.ChunkMetadata{
			ChunkID:   c.ChunkUUID,
			CreatedAt: c.CreatedAt,
			Name:      c.Name,
			Context:   c.Context,
		},
	}
}
