package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/codeweave/internal/chunker"
	"github.com/dshills/codeweave/internal/semantic"
	"github.com/dshills/codeweave/internal/storage"
	"github.com/dshills/codeweave/pkg/types"
)

// ErrIndexInProgress is returned when a project index is already running
var ErrIndexInProgress = errors.New("indexing already in progress")

// Default settings used when Config leaves them unset
const (
	DefaultBatchSize = 20
	contextLineLimit = 200
)

// defaultExcludeDirs are skipped during discovery in addition to hidden dirs
var defaultExcludeDirs = []string{"node_modules", "target", "dist", "build", "__pycache__"}

// Indexer coordinates the indexing pipeline: chunk -> classify -> store
type Indexer struct {
	selector   *chunker.Selector
	classifier *semantic.Classifier
	storage    storage.Storage
	logger     *zap.Logger
	lock       IndexLock

	// Worker pool configuration
	workers int
}

// Config contains configuration for the indexer
type Config struct {
	Workers       int      // Number of concurrent workers (default: runtime.NumCPU())
	BatchSize     int      // Number of files to commit per transaction (default: 20)
	IncludeTests  bool     // Whether to index test files
	IncludeVendor bool     // Whether to index vendor directories
	ExcludeDirs   []string // Directory names skipped during discovery
	ForceReindex  bool     // Re-chunk files even when their hash is unchanged
}

// DefaultConfig returns the configuration used when IndexProject gets nil
func DefaultConfig() *Config {
	return &Config{
		Workers:      runtime.NumCPU(),
		BatchSize:    DefaultBatchSize,
		IncludeTests: true,
		ExcludeDirs:  defaultExcludeDirs,
	}
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	FilesIndexed   int
	FilesSkipped   int
	FilesFailed    int
	FilesRemoved   int
	ChunksCreated  int
	ChunksFiltered int
	HighConfidence int
	Duration       time.Duration
	ErrorMessages  []string
}

// fileResult is the outcome of chunking and classifying one file
type fileResult struct {
	relPath   string
	hash      [32]byte
	modTime   time.Time
	sizeBytes int64
	language  string
	chunker   string
	chunks    []*storage.Chunk
	filtered  int
	err       error
	skip      bool
}

// New creates a new Indexer instance
func New(selector *chunker.Selector, classifier *semantic.Classifier, store storage.Storage, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		selector:   selector,
		classifier: classifier,
		storage:    store,
		logger:     logger,
		workers:    runtime.NumCPU(),
	}
}

// IndexProject indexes every supported file under rootPath
func (idx *Indexer) IndexProject(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	if !idx.lock.TryAcquire(rootPath) {
		holder, _ := idx.lock.Holder()
		return nil, fmt.Errorf("%w: %s", ErrIndexInProgress, holder)
	}
	defer idx.lock.Release()

	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	idx.workers = config.Workers

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	project, err := idx.getOrCreateProject(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	files, err := idx.discoverFiles(rootPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	known, err := idx.knownHashes(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load file hashes: %w", err)
	}
	if config.ForceReindex {
		known = nil
	}

	results, err := idx.processFiles(ctx, project, files, known)
	if err != nil {
		return nil, fmt.Errorf("failed to index files: %w", err)
	}

	if err := idx.storeResults(ctx, project, results, config, stats); err != nil {
		return nil, fmt.Errorf("failed to store results: %w", err)
	}

	removed, err := idx.pruneMissing(ctx, project, files)
	if err != nil {
		return nil, fmt.Errorf("failed to prune removed files: %w", err)
	}
	stats.FilesRemoved = removed

	if err := idx.updateProjectStats(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project stats: %w", err)
	}

	stats.Duration = time.Since(startTime)
	idx.logger.Info("indexed project",
		zap.String("root", rootPath),
		zap.Int("indexed", stats.FilesIndexed),
		zap.Int("skipped", stats.FilesSkipped),
		zap.Int("failed", stats.FilesFailed),
		zap.Int("removed", stats.FilesRemoved),
		zap.Int("chunks", stats.ChunksCreated),
		zap.Int("filtered", stats.ChunksFiltered),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}

// IndexFile re-indexes a single file of an already indexed project. The
// file is always re-chunked, even when its hash is unchanged.
func (idx *Indexer) IndexFile(ctx context.Context, rootPath, filePath string) (*Statistics, error) {
	project, err := idx.storage.GetProject(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	startTime := time.Now()
	stats := &Statistics{ErrorMessages: make([]string, 0)}
	res := idx.processFile(ctx, project, filePath, nil)

	if err := idx.storeResults(ctx, project, []*fileResult{res}, &Config{BatchSize: 1}, stats); err != nil {
		return nil, err
	}
	if err := idx.updateProjectStats(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project stats: %w", err)
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// RemoveFile drops a deleted file and its chunks from the index
func (idx *Indexer) RemoveFile(ctx context.Context, rootPath, filePath string) error {
	project, err := idx.storage.GetProject(ctx, rootPath)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	relPath, err := filepath.Rel(project.RootPath, filePath)
	if err != nil {
		return err
	}

	file, err := idx.storage.GetFile(ctx, project.ID, filepath.ToSlash(relPath))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := idx.storage.DeleteFile(ctx, file.ID); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return idx.updateProjectStats(ctx, project)
}

// IsIndexing reports whether a project index is currently running
func (idx *Indexer) IsIndexing() bool {
	_, busy := idx.lock.Holder()
	return busy
}

// IndexingRoot returns the root of the running project index, or "".
func (idx *Indexer) IndexingRoot() string {
	root, _ := idx.lock.Holder()
	return root
}

// Accepts reports whether discovery under rootPath would pick up path
func (idx *Indexer) Accepts(rootPath, path string, config *Config) bool {
	if config == nil {
		config = DefaultConfig()
	}
	if !idx.selector.Registry().IsSupported(path) {
		return false
	}
	if !config.IncludeTests && isTestFile(path) {
		return false
	}
	rel, err := filepath.Rel(rootPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	for _, dir := range strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/") {
		if skipDir(dir, config) {
			return false
		}
	}
	return true
}

// getOrCreateProject retrieves an existing project or creates a new one
func (idx *Indexer) getOrCreateProject(ctx context.Context, rootPath string) (*storage.Project, error) {
	project, err := idx.storage.GetProject(ctx, rootPath)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	project = &storage.Project{
		RootPath:     rootPath,
		Name:         filepath.Base(rootPath),
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if err := idx.storage.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// discoverFiles finds all supported source files in the project
func (idx *Indexer) discoverFiles(rootPath string, config *Config) ([]string, error) {
	var files []string
	registry := idx.selector.Registry()

	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != rootPath && skipDir(d.Name(), config) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !registry.IsSupported(path) {
			return nil
		}
		if !config.IncludeTests && isTestFile(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// skipDir reports whether discovery should not descend into a directory
func skipDir(name string, config *Config) bool {
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	if !config.IncludeVendor && name == "vendor" {
		return true
	}
	excludes := config.ExcludeDirs
	if excludes == nil {
		excludes = defaultExcludeDirs
	}
	for _, ex := range excludes {
		if name == ex {
			return true
		}
	}
	return false
}

// isTestFile recognises the common test file naming conventions
func isTestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	switch {
	case strings.HasSuffix(stem, "_test"),
		strings.HasPrefix(stem, "test_"),
		strings.HasSuffix(stem, ".test"),
		strings.HasSuffix(stem, ".spec"):
		return true
	}
	return false
}

// knownHashes returns the stored content hash for every file of a project
func (idx *Indexer) knownHashes(ctx context.Context, projectID int64) (map[string][32]byte, error) {
	files, err := idx.storage.ListFiles(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make(map[string][32]byte, len(files))
	for _, f := range files {
		if f.ParseError == nil {
			out[f.FilePath] = f.ContentHash
		}
	}
	return out, nil
}

// processFiles chunks and classifies files concurrently. Results keep the
// order of files; storage happens afterwards so workers never hold the
// database connection.
func (idx *Indexer) processFiles(ctx context.Context, project *storage.Project, files []string, known map[string][32]byte) ([]*fileResult, error) {
	semaphore := make(chan struct{}, idx.workers)
	results := make([]*fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[i] = idx.processFile(gctx, project, path, known)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// processFile hashes, chunks and classifies one file
func (idx *Indexer) processFile(ctx context.Context, project *storage.Project, filePath string, known map[string][32]byte) *fileResult {
	res := &fileResult{language: idx.selector.DetectLanguage(filePath)}

	relPath, err := filepath.Rel(project.RootPath, filePath)
	if err != nil {
		res.err = err
		return res
	}
	res.relPath = filepath.ToSlash(relPath)

	content, err := os.ReadFile(filePath)
	if err != nil {
		res.err = err
		return res
	}
	res.hash = sha256.Sum256(content)
	res.sizeBytes = int64(len(content))
	if info, err := os.Stat(filePath); err == nil {
		res.modTime = info.ModTime()
	}

	if prev, ok := known[res.relPath]; ok && prev == res.hash {
		res.skip = true
		return res
	}

	chunks, err := idx.selector.ChunkAs(ctx, content, filePath, res.language, nil)
	if err != nil {
		res.err = err
		return res
	}

	threshold := idx.selector.Governor().ImportanceThreshold
	res.chunks = make([]*storage.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		row := idx.classifyChunk(chunk)
		if belowThreshold(row, threshold) {
			res.filtered++
			continue
		}
		res.chunks = append(res.chunks, row)
	}
	if len(chunks) > 0 {
		res.chunker = chunks[0].ContextString(types.ContextChunkerType)
	}
	return res
}

// classifyChunk converts a chunk to a storage row carrying its classification
func (idx *Indexer) classifyChunk(chunk *types.Chunk) *storage.Chunk {
	return LabelChunk(idx.classifier, chunk)
}

// belowThreshold reports whether a classified row's category scores under
// threshold on every retrieval task. Unclassified rows are kept.
func belowThreshold(row *storage.Chunk, threshold float64) bool {
	if row.Category == "" {
		return false
	}
	cat, err := semantic.ParseCategory(row.Category)
	if err != nil {
		return false
	}
	return cat.Importance().Max() < threshold
}

// LabelChunk converts a chunk to a storage row and classifies its node type.
// AST chunks use their node type; delimiter chunks use the lower-cased
// delimiter kind. Chunks with neither are left unclassified.
func LabelChunk(classifier *semantic.Classifier, chunk *types.Chunk) *storage.Chunk {
	row := storage.FromTypesChunk(chunk, 0)

	nodeType := row.NodeType
	if nodeType == "" {
		nodeType = strings.ToLower(chunk.ContextString(types.ContextDelimiterKind))
	}
	if nodeType == "" || classifier == nil {
		return row
	}
	row.NodeType = nodeType

	result := classifier.Classify(semantic.Request{
		NodeType: nodeType,
		Language: chunk.Language,
		Context:  firstLine(chunk.Content),
	})
	row.Category = result.Category.String()
	row.Confidence = result.Confidence
	row.Phase = result.Phase.String()
	row.Importance = result.Importance()
	return row
}

// firstLine returns the first non-blank line, trimmed and capped at a rune
// boundary
func firstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > contextLineLimit {
			cut := contextLineLimit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			line = line[:cut]
		}
		return line
	}
	return ""
}

// storeResults writes results in batches, one transaction per batch
func (idx *Indexer) storeResults(ctx context.Context, project *storage.Project, results []*fileResult, config *Config, stats *Statistics) error {
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var (
		indexed, skipped, failed, chunks, high int32
		mu                                     sync.Mutex // Protect stats.ErrorMessages
	)

	for i := 0; i < len(results); i += batchSize {
		end := i + batchSize
		if end > len(results) {
			end = len(results)
		}

		if err := idx.storeBatch(ctx, project, results[i:end], &indexed, &skipped, &failed, &chunks, &high, &mu, stats); err != nil {
			return err
		}
	}

	stats.FilesIndexed += int(indexed)
	stats.FilesSkipped += int(skipped)
	stats.FilesFailed += int(failed)
	stats.ChunksCreated += int(chunks)
	stats.HighConfidence += int(high)
	return nil
}

// storeBatch persists a batch of file results within a transaction
func (idx *Indexer) storeBatch(ctx context.Context, project *storage.Project, batch []*fileResult,
	indexed, skipped, failed, chunks, high *int32, mu *sync.Mutex, stats *Statistics) error {

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, res := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		if res.skip {
			atomic.AddInt32(skipped, 1)
			continue
		}
		if res.err != nil && errors.Is(res.err, types.ErrFileTooLarge) {
			atomic.AddInt32(skipped, 1)
			idx.logger.Info("skipping file", zap.String("file", res.relPath), zap.Error(res.err))
			continue
		}

		stored, err := idx.storeFile(ctx, tx, project, res)
		if err == nil {
			err = res.err
		}
		if err != nil {
			atomic.AddInt32(failed, 1)
			idx.logger.Warn("failed to index file", zap.String("file", res.relPath), zap.Error(err))
			mu.Lock()
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", res.relPath, err))
			mu.Unlock()
			continue
		}

		atomic.AddInt32(indexed, 1)
		atomic.AddInt32(chunks, int32(len(stored)))
		if res.filtered > 0 {
			mu.Lock()
			stats.ChunksFiltered += res.filtered
			mu.Unlock()
		}
		for _, c := range stored {
			if c.Confidence >= semantic.HighConfidence {
				atomic.AddInt32(high, 1)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// storeFile replaces a file's record and chunks. A file that failed to
// chunk is recorded with its error and no chunks.
func (idx *Indexer) storeFile(ctx context.Context, tx storage.Tx, project *storage.Project, res *fileResult) ([]*storage.Chunk, error) {
	if res.relPath == "" {
		return nil, res.err
	}

	file := &storage.File{
		ProjectID:   project.ID,
		FilePath:    res.relPath,
		Language:    res.language,
		ChunkerType: res.chunker,
		ContentHash: res.hash,
		ModTime:     res.modTime,
		SizeBytes:   res.sizeBytes,
	}
	if res.err != nil {
		msg := res.err.Error()
		file.ParseError = &msg
	}

	if err := tx.UpsertFile(ctx, file); err != nil {
		return nil, err
	}
	if err := tx.DeleteChunksByFile(ctx, file.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old chunks: %w", err)
	}
	if res.err != nil {
		return nil, nil
	}

	for _, c := range res.chunks {
		c.FileID = file.ID
		if err := tx.UpsertChunk(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to store chunk: %w", err)
		}
	}
	return res.chunks, nil
}

// pruneMissing deletes stored files that discovery no longer finds
func (idx *Indexer) pruneMissing(ctx context.Context, project *storage.Project, discovered []string) (int, error) {
	present := make(map[string]struct{}, len(discovered))
	for _, path := range discovered {
		if rel, err := filepath.Rel(project.RootPath, path); err == nil {
			present[filepath.ToSlash(rel)] = struct{}{}
		}
	}

	files, err := idx.storage.ListFiles(ctx, project.ID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if _, ok := present[f.FilePath]; ok {
			continue
		}
		if err := idx.storage.DeleteFile(ctx, f.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// updateProjectStats updates the project's file and chunk counts
func (idx *Indexer) updateProjectStats(ctx context.Context, project *storage.Project) error {
	status, err := idx.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return err
	}

	project.TotalFiles = status.FilesCount
	project.TotalChunks = status.ChunksCount
	project.LastIndexedAt = time.Now()

	return idx.storage.UpdateProject(ctx, project)
}

// ErrorSummary returns the first n error messages sorted for stable output
func (s *Statistics) ErrorSummary(n int) []string {
	msgs := append([]string(nil), s.ErrorMessages...)
	sort.Strings(msgs)
	if n > 0 && len(msgs) > n {
		msgs = msgs[:n]
	}
	return msgs
}
