package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dshills/codeweave/internal/chunker"
	"github.com/dshills/codeweave/internal/language"
	"github.com/dshills/codeweave/internal/semantic"
	"github.com/dshills/codeweave/internal/storage"
	"github.com/dshills/codeweave/pkg/types"
)

const goSource = `package calc

// Add returns the sum of a and b.
func Add(a, b int) int {
	return a + b
}

// Multiply returns the product of x and y.
func Multiply(x, y int) int {
	return x * y
}
`

const pySource = `def greet(name):
    return "hello " + name


class Greeter:
    def run(self):
        return greet("world")
`

func setupTestStorage(t testing.TB) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestIndexer(t testing.TB, gov chunker.Governor) (*Indexer, *storage.SQLiteStorage) {
	t.Helper()
	store := setupTestStorage(t)
	classifier, err := semantic.NewClassifier(nil, semantic.WithCache(256))
	require.NoError(t, err)
	selector := chunker.NewSelector(language.NewRegistry(), gov, zap.NewNop())
	return New(selector, classifier, store, zap.NewNop()), store
}

func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestDiscoverFiles(t *testing.T) {
	idx, _ := newTestIndexer(t, chunker.DefaultGovernor())
	root := t.TempDir()
	createTestFile(t, root, "main.go", goSource)
	createTestFile(t, root, "main_test.go", goSource)
	createTestFile(t, root, "app/greet.py", pySource)
	createTestFile(t, root, "app/test_greet.py", pySource)
	createTestFile(t, root, "vendor/lib/lib.go", goSource)
	createTestFile(t, root, ".git/hooks/pre.go", goSource)
	createTestFile(t, root, "node_modules/x/index.js", "export const x = 1")
	createTestFile(t, root, "image.png", "not really an image")

	tests := []struct {
		name   string
		config *Config
		want   []string
	}{
		{"defaults", DefaultConfig(), []string{"app/greet.py", "app/test_greet.py", "main.go", "main_test.go"}},
		{"skip tests", &Config{}, []string{"app/greet.py", "main.go"}},
		{"include vendor", &Config{IncludeVendor: true}, []string{"app/greet.py", "main.go", "vendor/lib/lib.go"}},
		{"custom excludes", &Config{ExcludeDirs: []string{"app"}}, []string{"main.go", "node_modules/x/index.js"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := idx.discoverFiles(root, tt.config)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, relPaths(t, root, files))
		})
	}
}

func TestDiscoverFiles_EmptyDirectory(t *testing.T) {
	idx, _ := newTestIndexer(t, chunker.DefaultGovernor())
	files, err := idx.discoverFiles(t.TempDir(), DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIsTestFile(t *testing.T) {
	tests := map[string]bool{
		"parser_test.go":     true,
		"test_parser.py":     true,
		"button.test.tsx":    true,
		"api.spec.js":        true,
		"parser.go":          false,
		"testing.go":         false,
		"contest.py":         false,
		"dir/Latest_Test.go": true,
	}
	for path, want := range tests {
		assert.Equal(t, want, isTestFile(path), path)
	}
}

func TestAccepts(t *testing.T) {
	idx, _ := newTestIndexer(t, chunker.DefaultGovernor())
	root := "/src/project"

	assert.True(t, idx.Accepts(root, "/src/project/main.go", nil))
	assert.True(t, idx.Accepts(root, "/src/project/pkg/a_test.go", nil))
	assert.False(t, idx.Accepts(root, "/src/project/pkg/a_test.go", &Config{}))
	assert.False(t, idx.Accepts(root, "/src/project/vendor/x.go", nil))
	assert.False(t, idx.Accepts(root, "/src/project/.cache/x.go", nil))
	assert.False(t, idx.Accepts(root, "/src/project/image.png", nil))
	assert.False(t, idx.Accepts(root, "/elsewhere/main.go", nil))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "func Add() {", firstLine("\n\n   func Add() {\n}"))
	assert.Equal(t, "", firstLine("  \n\t\n"))
	assert.Len(t, firstLine(strings.Repeat("x", 500)), contextLineLimit)

	// the byte limit falls inside a two-byte rune
	wide := firstLine("x" + strings.Repeat("é", 150))
	assert.True(t, utf8.ValidString(wide))
	assert.Len(t, wide, contextLineLimit-1)
}

func TestClassifyChunk(t *testing.T) {
	idx, _ := newTestIndexer(t, chunker.DefaultGovernor())

	ast := &types.Chunk{
		Content:   "func Add(a, b int) int { return a + b }",
		LineRange: types.LineRange{Start: 1, End: 1},
		Language:  "go",
		Metadata: types.ChunkMetadata{
			ChunkID: "a",
			Context: map[string]any{
				types.ContextChunkerType: "go_ast",
				types.ContextNodeType:    "function_declaration",
			},
		},
	}
	row := idx.classifyChunk(ast)
	assert.Equal(t, "DEFINITION_CALLABLE", row.Category)
	assert.Equal(t, "OVERRIDE", row.Phase)
	assert.InDelta(t, 1.0, row.Confidence, 1e-9)
	assert.Greater(t, row.Importance, 0.0)

	delim := &types.Chunk{
		Content:   "function deploy() {\n  echo hi\n}",
		LineRange: types.LineRange{Start: 1, End: 3},
		Language:  "bash",
		Metadata: types.ChunkMetadata{
			ChunkID: "b",
			Context: map[string]any{
				types.ContextChunkerType:   "delimiter",
				types.ContextDelimiterKind: "FUNCTION",
			},
		},
	}
	row = idx.classifyChunk(delim)
	assert.Equal(t, "function", row.NodeType)
	assert.Equal(t, "DEFINITION_CALLABLE", row.Category)
	assert.Equal(t, "TIER_MATCH", row.Phase)

	bare := &types.Chunk{
		Content:   "plain text",
		LineRange: types.LineRange{Start: 1, End: 1},
		Language:  "text",
		Metadata:  types.ChunkMetadata{ChunkID: "c"},
	}
	row = idx.classifyChunk(bare)
	assert.Empty(t, row.Category)
	assert.Zero(t, row.Confidence)
}

func TestIndexProject_Success(t *testing.T) {
	idx, store := newTestIndexer(t, chunker.DefaultGovernor())
	ctx := context.Background()
	root := t.TempDir()
	createTestFile(t, root, "calc/calc.go", goSource)
	createTestFile(t, root, "app/greet.py", pySource)

	stats, err := idx.IndexProject(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Empty(t, stats.ErrorMessages)
	assert.Greater(t, stats.ChunksCreated, 0)
	assert.Greater(t, stats.HighConfidence, 0)

	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, project.TotalFiles)
	assert.Equal(t, stats.ChunksCreated, project.TotalChunks)
	assert.Equal(t, filepath.Base(root), project.Name)

	file, err := store.GetFile(ctx, project.ID, "calc/calc.go")
	require.NoError(t, err)
	assert.Equal(t, "go", file.Language)
	assert.Equal(t, "go_ast", file.ChunkerType)
	assert.Equal(t, types.HashContent(goSource), file.ContentHash)

	chunks, err := store.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	var callables []string
	for _, c := range chunks {
		assert.NotEmpty(t, c.ChunkUUID)
		if c.NodeType == "function_declaration" {
			assert.Equal(t, "DEFINITION_CALLABLE", c.Category)
			assert.InDelta(t, 1.0, c.Confidence, 1e-9)
			callables = append(callables, c.Name)
		}
	}
	assert.Len(t, callables, 2)

	results, err := store.SearchChunks(ctx, project.ID, "Multiply", 5, &storage.SearchFilters{Category: "DEFINITION_CALLABLE"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "calc/calc.go", results[0].FilePath)
}

func TestIndexProject_IncrementalUpdate(t *testing.T) {
	idx, _ := newTestIndexer(t, chunker.DefaultGovernor())
	ctx := context.Background()
	root := t.TempDir()
	goPath := createTestFile(t, root, "calc.go", goSource)
	createTestFile(t, root, "greet.py", pySource)

	stats, err := idx.IndexProject(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)

	stats, err = idx.IndexProject(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesIndexed)
	assert.Equal(t, 2, stats.FilesSkipped)

	require.NoError(t, os.WriteFile(goPath, []byte(goSource+"\nfunc Sub(a, b int) int { return a - b }\n"), 0o644))
	stats, err = idx.IndexProject(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesSkipped)

	cfg := DefaultConfig()
	cfg.ForceReindex = true
	stats, err = idx.IndexProject(ctx, root, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)
}

func TestIndexProject_FailureIsolation(t *testing.T) {
	idx, store := newTestIndexer(t, chunker.DefaultGovernor())
	ctx := context.Background()
	root := t.TempDir()
	createTestFile(t, root, "good.go", goSource)
	createTestFile(t, root, "bad.go", string([]byte{0xff, 0xfe, 0x00, 0x01}))

	stats, err := idx.IndexProject(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesFailed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.True(t, strings.HasPrefix(stats.ErrorMessages[0], "bad.go: "))

	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)
	bad, err := store.GetFile(ctx, project.ID, "bad.go")
	require.NoError(t, err)
	require.NotNil(t, bad.ParseError)

	status, err := store.GetStatus(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.FailedFiles)

	// Failed files are retried on the next run
	stats, err = idx.IndexProject(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesFailed)
	assert.Equal(t, 1, stats.FilesSkipped)
}

func TestIndexProject_SkipsOversizedFiles(t *testing.T) {
	gov := chunker.DefaultGovernor()
	gov.MaxFileSizeMB = 0.0001
	idx, _ := newTestIndexer(t, gov)
	root := t.TempDir()
	createTestFile(t, root, "small.go", "package a\n")
	createTestFile(t, root, "large.go", goSource+strings.Repeat("// padding\n", 20))

	stats, err := idx.IndexProject(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 0, stats.FilesFailed)
}

func TestBelowThreshold(t *testing.T) {
	tests := []struct {
		category  string
		threshold float64
		want      bool
	}{
		{"DEFINITION_CALLABLE", chunker.DefaultImportanceThreshold, false},
		{"SYNTAX_LITERAL", chunker.DefaultImportanceThreshold, false},
		{"SYNTAX_PUNCTUATION", chunker.DefaultImportanceThreshold, true},
		{"DEFINITION_CALLABLE", 0.96, true},
		{"", 0.96, false},
		{"NOT_A_CATEGORY", 0.96, false},
	}
	for _, tt := range tests {
		row := &storage.Chunk{Category: tt.category}
		assert.Equal(t, tt.want, belowThreshold(row, tt.threshold), "%s at %v", tt.category, tt.threshold)
	}
}

func TestIndexProject_ImportanceThreshold(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	createTestFile(t, root, "calc.go", goSource)

	idx, _ := newTestIndexer(t, chunker.DefaultGovernor())
	stats, err := idx.IndexProject(ctx, root, nil)
	require.NoError(t, err)
	created := stats.ChunksCreated
	require.Positive(t, created)
	assert.Zero(t, stats.ChunksFiltered)

	// every category scores below 0.96 on all tasks
	strict, store := newTestIndexer(t, chunker.Governor{ImportanceThreshold: 0.96})
	stats, err = strict.IndexProject(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Zero(t, stats.ChunksCreated)
	assert.Equal(t, created, stats.ChunksFiltered)

	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)
	file, err := store.GetFile(ctx, project.ID, "calc.go")
	require.NoError(t, err)
	chunks, err := store.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestIndexProject_PrunesDeletedFiles(t *testing.T) {
	idx, store := newTestIndexer(t, chunker.DefaultGovernor())
	ctx := context.Background()
	root := t.TempDir()
	createTestFile(t, root, "keep.go", goSource)
	gone := createTestFile(t, root, "gone.py", pySource)

	_, err := idx.IndexProject(ctx, root, nil)
	require.NoError(t, err)
	require.NoError(t, os.Remove(gone))

	stats, err := idx.IndexProject(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesRemoved)

	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, project.TotalFiles)
	_, err = store.GetFile(ctx, project.ID, "gone.py")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIndexProject_InProgress(t *testing.T) {
	idx, _ := newTestIndexer(t, chunker.DefaultGovernor())
	require.True(t, idx.lock.TryAcquire("/busy/root"))
	assert.True(t, idx.IsIndexing())
	assert.Equal(t, "/busy/root", idx.IndexingRoot())

	_, err := idx.IndexProject(context.Background(), t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrIndexInProgress)
	assert.ErrorContains(t, err, "/busy/root")

	idx.lock.Release()
	assert.False(t, idx.IsIndexing())
	assert.Empty(t, idx.IndexingRoot())
}

func TestIndexProject_ContextCancellation(t *testing.T) {
	idx, _ := newTestIndexer(t, chunker.DefaultGovernor())
	root := t.TempDir()
	for i := 0; i < 10; i++ {
		createTestFile(t, root, filepath.Join("pkg", string(rune('a'+i))+".go"), goSource)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.IndexProject(ctx, root, nil)
	assert.Error(t, err)
	assert.False(t, idx.IsIndexing(), "lock is released on error")
}

func TestIndexProject_BatchProcessing(t *testing.T) {
	idx, store := newTestIndexer(t, chunker.DefaultGovernor())
	ctx := context.Background()
	root := t.TempDir()
	for i := 0; i < 7; i++ {
		createTestFile(t, root, string(rune('a'+i))+".go", goSource)
	}

	stats, err := idx.IndexProject(ctx, root, &Config{Workers: 3, BatchSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 7, stats.FilesIndexed)

	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)
	files, err := store.ListFiles(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, files, 7)
}

func TestIndexFileAndRemoveFile(t *testing.T) {
	idx, store := newTestIndexer(t, chunker.DefaultGovernor())
	ctx := context.Background()
	root := t.TempDir()
	createTestFile(t, root, "calc.go", goSource)

	_, err := idx.IndexProject(ctx, root, nil)
	require.NoError(t, err)
	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)

	added := createTestFile(t, root, "greet.py", pySource)
	stats, err := idx.IndexFile(ctx, project.RootPath, added)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)

	file, err := store.GetFile(ctx, project.ID, "greet.py")
	require.NoError(t, err)
	chunks, err := store.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)

	// Re-indexing replaces chunks instead of appending
	stats, err = idx.IndexFile(ctx, project.RootPath, added)
	require.NoError(t, err)
	again, err := store.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Len(t, again, len(chunks))
	assert.Equal(t, len(chunks), stats.ChunksCreated)

	require.NoError(t, os.Remove(added))
	require.NoError(t, idx.RemoveFile(ctx, project.RootPath, added))
	_, err = store.GetFile(ctx, project.ID, "greet.py")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Removing an unknown file is a no-op
	require.NoError(t, idx.RemoveFile(ctx, project.RootPath, filepath.Join(root, "never.go")))

	_, err = idx.IndexFile(ctx, "/not/indexed", added)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStatistics_ErrorSummary(t *testing.T) {
	s := &Statistics{ErrorMessages: []string{"c: x", "a: y", "b: z"}}
	assert.Equal(t, []string{"a: y", "b: z"}, s.ErrorSummary(2))
	assert.Len(t, s.ErrorSummary(0), 3)
}

func BenchmarkIndexProject(b *testing.B) {
	root := b.TempDir()
	for i := 0; i < 20; i++ {
		createTestFile(b, root, filepath.Join("pkg", string(rune('a'+i))+".go"), goSource)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		idx, _ := newTestIndexer(b, chunker.DefaultGovernor())
		b.StartTimer()

		start := time.Now()
		if _, err := idx.IndexProject(context.Background(), root, nil); err != nil {
			b.Fatal(err)
		}
		b.ReportMetric(float64(time.Since(start).Milliseconds()), "ms/index")
	}
}
