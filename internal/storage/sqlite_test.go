package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codeweave/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	t.Helper()
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

// seedFile creates a project and one file in it
func seedFile(t *testing.T, s *SQLiteStorage, path string) (*Project, *File) {
	t.Helper()
	ctx := context.Background()

	project, err := s.GetProject(ctx, "/test")
	if errors.Is(err, ErrNotFound) {
		project = &Project{RootPath: "/test", Name: "test"}
		require.NoError(t, s.CreateProject(ctx, project))
	} else {
		require.NoError(t, err)
	}

	file := &File{
		ProjectID:   project.ID,
		FilePath:    path,
		Language:    "go",
		ChunkerType: "ast",
		ContentHash: types.HashContent(path),
		ModTime:     time.Now(),
		SizeBytes:   100,
	}
	require.NoError(t, s.UpsertFile(ctx, file))
	return project, file
}

func newChunk(fileID int64, uuid string, start, end int, content string) *Chunk {
	return &Chunk{
		FileID:      fileID,
		ChunkUUID:   uuid,
		Name:        "chunk " + uuid,
		Language:    "go",
		ChunkerType: "ast",
		NodeType:    "function_declaration",
		Category:    "DEFINITION_CALLABLE",
		Confidence:  0.9,
		Phase:       "GRAMMAR",
		Importance:  0.95,
		StartLine:   start,
		EndLine:     end,
		Content:     content,
		ContentHash: types.HashContent(content),
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	assert.NotNil(t, storage.db)
}

func TestDataSourceName(t *testing.T) {
	dsn := dataSourceName("/tmp/index.db")
	assert.True(t, strings.HasPrefix(dsn, "/tmp/index.db?"))
	assert.Contains(t, dsn, "5000")
}

func TestClose(t *testing.T) {
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	assert.NoError(t, storage.Close())
}

func TestCreateProject(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	project := &Project{RootPath: "/test/path", Name: "project"}
	require.NoError(t, storage.CreateProject(ctx, project))
	assert.Greater(t, project.ID, int64(0))
	assert.Equal(t, CurrentSchemaVersion, project.IndexVersion)

	// Unique constraint on root_path
	err := storage.CreateProject(ctx, &Project{RootPath: "/test/path", Name: "another"})
	assert.Error(t, err)
}

func TestGetProject(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	project := &Project{RootPath: "/test/path", Name: "project"}
	require.NoError(t, storage.CreateProject(ctx, project))

	retrieved, err := storage.GetProject(ctx, "/test/path")
	require.NoError(t, err)
	assert.Equal(t, project.ID, retrieved.ID)
	assert.Equal(t, "project", retrieved.Name)
	assert.True(t, retrieved.LastIndexedAt.IsZero())
}

func TestGetProject_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	_, err := storage.GetProject(context.Background(), "/nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProject(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	project := &Project{RootPath: "/test/path", Name: "project"}
	require.NoError(t, storage.CreateProject(ctx, project))

	project.Name = "renamed"
	project.TotalFiles = 10
	project.TotalChunks = 100
	project.LastIndexedAt = time.Now()
	require.NoError(t, storage.UpdateProject(ctx, project))

	updated, err := storage.GetProject(ctx, "/test/path")
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, 10, updated.TotalFiles)
	assert.Equal(t, 100, updated.TotalChunks)
	assert.False(t, updated.LastIndexedAt.IsZero())
}

func TestUpsertFile(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	_, file := seedFile(t, storage, "main.go")
	originalID := file.ID

	msg := "parse error: unexpected EOF"
	file.SizeBytes = 5678
	file.Language = "python"
	file.ParseError = &msg
	require.NoError(t, storage.UpsertFile(ctx, file))
	assert.Equal(t, originalID, file.ID)

	retrieved, err := storage.GetFileByID(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5678), retrieved.SizeBytes)
	assert.Equal(t, "python", retrieved.Language)
	assert.Equal(t, "ast", retrieved.ChunkerType)
	require.NotNil(t, retrieved.ParseError)
	assert.Equal(t, msg, *retrieved.ParseError)
	assert.Equal(t, file.ContentHash, retrieved.ContentHash)
}

func TestGetFile(t *testing.T) {
	storage := setupTestDB(t)
	project, file := seedFile(t, storage, "test.go")

	retrieved, err := storage.GetFile(context.Background(), project.ID, "test.go")
	require.NoError(t, err)
	assert.Equal(t, file.ID, retrieved.ID)
	assert.Equal(t, "test.go", retrieved.FilePath)
	assert.Nil(t, retrieved.ParseError)
}

func TestGetFile_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	_, err := storage.GetFile(context.Background(), 999, "nonexistent.go")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = storage.GetFileByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiles(t *testing.T) {
	storage := setupTestDB(t)
	var project *Project
	for _, p := range []string{"c.go", "a.go", "b.go"} {
		project, _ = seedFile(t, storage, p)
	}

	files, err := storage.ListFiles(context.Background(), project.ID)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "a.go", files[0].FilePath)
	assert.Equal(t, "c.go", files[2].FilePath)
}

func TestDeleteFile_CascadesChunks(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	project, file := seedFile(t, storage, "delete.go")

	chunk := newChunk(file.ID, "c1", 1, 3, "func gone() {}")
	require.NoError(t, storage.UpsertChunk(ctx, chunk))

	require.NoError(t, storage.DeleteFile(ctx, file.ID))

	_, err := storage.GetFile(ctx, project.ID, "delete.go")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = storage.GetChunk(ctx, chunk.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertChunk(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	_, file := seedFile(t, storage, "test.go")

	chunk := newChunk(file.ID, "c1", 1, 5, "func original() {}")
	chunk.Context = map[string]any{
		types.ContextChunkerType:   "ast",
		types.ContextNestingLevel:  2,
		types.ContextDelimiterKind: "FUNCTION",
	}
	require.NoError(t, storage.UpsertChunk(ctx, chunk))
	firstID := chunk.ID
	assert.NotZero(t, firstID)

	retrieved, err := storage.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, "c1", retrieved.ChunkUUID)
	assert.Equal(t, "DEFINITION_CALLABLE", retrieved.Category)
	assert.InDelta(t, 0.9, retrieved.Confidence, 1e-9)
	assert.InDelta(t, 0.95, retrieved.Importance, 1e-9)
	assert.Equal(t, "GRAMMAR", retrieved.Phase)
	assert.Equal(t, chunk.ContentHash, retrieved.ContentHash)
	assert.Equal(t, "FUNCTION", retrieved.Context[types.ContextDelimiterKind])

	// Same uuid updates in place
	updated := newChunk(file.ID, "c1", 1, 6, "func updated() {}")
	require.NoError(t, storage.UpsertChunk(ctx, updated))
	assert.Equal(t, firstID, updated.ID)

	chunks, err := storage.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "func updated() {}", chunks[0].Content)
	assert.Equal(t, 6, chunks[0].EndLine)
	assert.Nil(t, chunks[0].Context)
}

func TestListChunksByFile(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	_, file := seedFile(t, storage, "test.go")

	require.NoError(t, storage.UpsertChunk(ctx, newChunk(file.ID, "late", 20, 30, "b")))
	require.NoError(t, storage.UpsertChunk(ctx, newChunk(file.ID, "early", 1, 10, "a")))

	chunks, err := storage.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "early", chunks[0].ChunkUUID)
	assert.Equal(t, "late", chunks[1].ChunkUUID)
}

func TestDeleteChunks(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	_, file := seedFile(t, storage, "test.go")

	first := newChunk(file.ID, "c1", 1, 2, "one")
	require.NoError(t, storage.UpsertChunk(ctx, first))
	require.NoError(t, storage.UpsertChunk(ctx, newChunk(file.ID, "c2", 3, 4, "two")))
	require.NoError(t, storage.UpsertChunk(ctx, newChunk(file.ID, "c3", 5, 6, "three")))

	require.NoError(t, storage.DeleteChunk(ctx, first.ID))
	chunks, err := storage.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	require.NoError(t, storage.DeleteChunksByFile(ctx, file.ID))
	chunks, err = storage.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestBeginTx_CommitRollback(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	project := &Project{RootPath: "/test", Name: "test"}
	require.NoError(t, tx.CreateProject(ctx, project))
	require.NoError(t, tx.Commit())

	retrieved, err := storage.GetProject(ctx, "/test")
	require.NoError(t, err)
	assert.Equal(t, project.ID, retrieved.ID)

	tx2, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx2.CreateProject(ctx, &Project{RootPath: "/test2", Name: "test2"}))

	// Reads inside the transaction see its own writes
	_, err = tx2.GetProject(ctx, "/test2")
	require.NoError(t, err)

	_, err = tx2.BeginTx(ctx)
	assert.Error(t, err)

	require.NoError(t, tx2.Rollback())

	_, err = storage.GetProject(ctx, "/test2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetStatus(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	project, file := seedFile(t, storage, "a.go")

	_, broken := seedFile(t, storage, "broken.py")
	msg := "binary file"
	broken.ParseError = &msg
	require.NoError(t, storage.UpsertFile(ctx, broken))

	require.NoError(t, storage.UpsertChunk(ctx, newChunk(file.ID, "c1", 1, 2, "one")))
	low := newChunk(file.ID, "c2", 3, 4, "two")
	low.Category = "SYNTAX_IDENTIFIER"
	low.Confidence = 0.3
	require.NoError(t, storage.UpsertChunk(ctx, low))
	unclassified := newChunk(file.ID, "c3", 5, 6, "three")
	unclassified.Category = ""
	unclassified.Confidence = 0.6
	unclassified.Language = "python"
	require.NoError(t, storage.UpsertChunk(ctx, unclassified))

	status, err := storage.GetStatus(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, status.FilesCount)
	assert.Equal(t, 1, status.FailedFiles)
	assert.Equal(t, 3, status.ChunksCount)
	assert.Equal(t, 1, status.HighConfidence)
	assert.InDelta(t, 0.6, status.AverageConfidence, 1e-9)
	assert.Equal(t, map[string]int{
		"DEFINITION_CALLABLE": 1,
		"SYNTAX_IDENTIFIER":   1,
		"UNCLASSIFIED":        1,
	}, status.CategoryCounts)
	assert.Equal(t, map[string]int{"go": 2, "python": 1}, status.LanguageCounts)
	assert.Equal(t, CurrentSchemaVersion, status.SchemaVersion)
	assert.Equal(t, BuildMode, status.BuildMode)
	assert.True(t, status.Health.DatabaseAccessible)
	assert.True(t, status.Health.FTSIndexesBuilt)

	_, err = storage.GetStatus(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChunkConversion(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	src := &types.Chunk{
		Content:   "def handler():\n    pass",
		LineRange: types.LineRange{Start: 3, End: 4},
		FilePath:  "app/handler.py",
		Language:  "python",
		Metadata: types.ChunkMetadata{
			ChunkID:   "0190f1c2-aaaa-7bbb-8ccc-000000000001",
			CreatedAt: created,
			Name:      "handler",
			Context: map[string]any{
				types.ContextChunkerType: "ast",
				types.ContextNodeType:    "function_definition",
				types.ContextCategory:    "DEFINITION_CALLABLE",
				types.ContextConfidence:  0.99,
			},
		},
	}

	row := FromTypesChunk(src, 7)
	assert.Equal(t, int64(7), row.FileID)
	assert.Equal(t, src.Metadata.ChunkID, row.ChunkUUID)
	assert.Equal(t, "ast", row.ChunkerType)
	assert.Equal(t, "function_definition", row.NodeType)
	assert.Equal(t, "DEFINITION_CALLABLE", row.Category)
	assert.InDelta(t, 0.99, row.Confidence, 1e-9)
	assert.Equal(t, src.ContentHash(), row.ContentHash)

	back := row.ToTypesChunk("app/handler.py")
	assert.Equal(t, *src, back)
}
