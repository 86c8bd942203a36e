package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/codeweave/internal/indexer"
	"github.com/dshills/codeweave/internal/searcher"
	"github.com/dshills/codeweave/internal/semantic"
	"github.com/dshills/codeweave/internal/storage"
	"github.com/dshills/codeweave/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeProjectNotFound    = -32001 // Specified path does not exist or is not a directory
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Project not indexed
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

const (
	// maxReportedErrors caps per-file errors in index_repository responses
	maxReportedErrors = 5
	// alternativeThreshold is the lowest confidence an alternative category may have
	alternativeThreshold = 0.3
	maxAlternatives      = 3
)

// handleChunkFile handles the chunk_file tool invocation
func (s *Server) handleChunkFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	if err := validateFilePath(path); err != nil {
		return nil, pathError(err)
	}

	lang := strings.ToLower(getStringDefault(args, "language", ""))
	var chunks []*types.Chunk
	if lang == "" {
		lang = s.app.Selector.DetectLanguage(path)
		chunks, err = s.app.Selector.ChunkFile(ctx, path, nil)
	} else {
		var content []byte
		content, err = os.ReadFile(path)
		if err == nil {
			chunks, err = s.app.Selector.ChunkAs(ctx, content, path, lang, nil)
		}
	}
	if err != nil {
		return nil, chunkError(path, err)
	}

	items := make([]map[string]interface{}, 0, len(chunks))
	chunkerName := ""
	for _, c := range chunks {
		if chunkerName == "" {
			chunkerName = c.ContextString(types.ContextChunkerType)
		}
		items = append(items, chunkView(indexer.LabelChunk(s.app.Classifier, c), ""))
	}

	s.logger.Debug("chunked file",
		zap.String("file", path),
		zap.String("language", lang),
		zap.Int("chunks", len(chunks)))

	response := map[string]interface{}{
		"path":        path,
		"language":    lang,
		"chunker":     chunkerName,
		"chunk_count": len(chunks),
		"chunks":      items,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleClassifyNode handles the classify_node tool invocation
func (s *Server) handleClassifyNode(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	nodeType, err := requireString(args, "node_type")
	if err != nil {
		return nil, err
	}
	lang, err := requireString(args, "language")
	if err != nil {
		return nil, err
	}

	req := semantic.Request{
		NodeType:   nodeType,
		Language:   lang,
		Context:    getStringDefault(args, "context", ""),
		ParentType: getStringDefault(args, "parent_type", ""),
	}
	result, alts := s.app.Classifier.Alternatives(req, alternativeThreshold, maxAlternatives)

	response := map[string]interface{}{
		"node_type":  result.NodeType,
		"language":   result.Language,
		"category":   result.Category.String(),
		"rank":       result.Rank.String(),
		"confidence": result.Confidence,
		"grade":      result.Grade(),
		"phase":      result.Phase.String(),
		"importance": result.Importance(),
	}
	if result.MatchedPattern != "" {
		response["matched_pattern"] = result.MatchedPattern
	}
	if len(alts) > 0 {
		alternatives := make([]map[string]interface{}, 0, len(alts))
		for _, a := range alts {
			alternatives = append(alternatives, map[string]interface{}{
				"category":   a.Category.String(),
				"confidence": a.Confidence,
			})
		}
		response["alternatives"] = alternatives
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexRepository handles the index_repository tool invocation
func (s *Server) handleIndexRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	if err := validateDirPath(path); err != nil {
		return nil, pathError(err)
	}

	config := s.app.IndexConfig()
	config.ForceReindex = getBoolDefault(args, "force_reindex", false)

	stats, err := s.app.IndexProject(ctx, path, config)
	if errors.Is(err, indexer.ErrIndexInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", map[string]interface{}{
			"path":     path,
			"indexing": s.app.Indexer.IndexingRoot(),
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":         true,
		"files_indexed":   stats.FilesIndexed,
		"files_skipped":   stats.FilesSkipped,
		"files_failed":    stats.FilesFailed,
		"files_removed":   stats.FilesRemoved,
		"chunks_created":  stats.ChunksCreated,
		"chunks_filtered": stats.ChunksFiltered,
		"high_confidence": stats.HighConfidence,
		"duration_ms":     stats.Duration.Milliseconds(),
	}
	if len(stats.ErrorMessages) > 0 {
		response["errors"] = stats.ErrorSummary(maxReportedErrors)
		response["error_count"] = len(stats.ErrorMessages)
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchChunks handles the search_chunks tool invocation
func (s *Server) handleSearchChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	if err := validateDirPath(path); err != nil {
		return nil, pathError(err)
	}

	limit := getIntDefault(args, "limit", DefaultSearchLimit)
	if limit < 1 || limit > MaxSearchLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	filters := &storage.SearchFilters{
		Language:      getStringDefault(args, "language", ""),
		FilePattern:   getStringDefault(args, "file_pattern", ""),
		MinConfidence: getFloatDefault(args, "min_confidence", 0),
	}
	if filters.MinConfidence < 0 || filters.MinConfidence > 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "min_confidence must be between 0 and 1", map[string]interface{}{
			"param": "min_confidence",
			"value": filters.MinConfidence,
		})
	}
	if name := getStringDefault(args, "category", ""); name != "" {
		cat, err := semantic.ParseCategory(name)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid category", map[string]interface{}{
				"param": "category",
				"value": name,
			})
		}
		filters.Category = cat.String()
	}

	project, err := s.lookupProject(ctx, path)
	if err != nil {
		return nil, err
	}

	resp, err := s.app.Search(ctx, project.ID, query, limit, filters)
	if errors.Is(err, searcher.ErrEmptyQuery) {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query contains no searchable terms", map[string]interface{}{
			"param": "query",
			"value": query,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, 0, len(resp.Results))
	for i, r := range resp.Results {
		item := chunkView(r.Chunk, r.FilePath)
		item["rank"] = i + 1
		item["score"] = r.Score
		items = append(items, item)
	}

	response := map[string]interface{}{
		"query":         query,
		"total_results": len(items),
		"duration_ms":   resp.Duration.Milliseconds(),
		"cache_hit":     resp.CacheHit,
		"results":       items,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	if err := validateDirPath(path); err != nil {
		return nil, pathError(err)
	}

	project, err := s.app.Storage.GetProject(ctx, filepath.Clean(path))
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Project not indexed. Use index_repository tool to index this project.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.app.Storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed": true,
		"project": map[string]interface{}{
			"path":            project.RootPath,
			"name":            project.Name,
			"index_version":   project.IndexVersion,
			"last_indexed_at": project.LastIndexedAt.Format(time.RFC3339),
		},
		"statistics": map[string]interface{}{
			"files_count":        status.FilesCount,
			"failed_files":       status.FailedFiles,
			"chunks_count":       status.ChunksCount,
			"high_confidence":    status.HighConfidence,
			"average_confidence": fmt.Sprintf("%.3f", status.AverageConfidence),
			"categories":         status.CategoryCounts,
			"languages":          status.LanguageCounts,
			"index_size_mb":      fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"fts_indexes_built":   status.Health.FTSIndexesBuilt,
			"schema_version":      status.SchemaVersion,
			"build_mode":          status.BuildMode,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// lookupProject loads an indexed project or returns a not-indexed error
func (s *Server) lookupProject(ctx context.Context, path string) (*storage.Project, error) {
	project, err := s.app.Storage.GetProject(ctx, filepath.Clean(path))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{
			"path": path,
			"hint": "run index_repository first",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load project", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return project, nil
}

// Helper functions

// chunkView renders a labeled chunk for a tool response
func chunkView(c *storage.Chunk, filePath string) map[string]interface{} {
	view := map[string]interface{}{
		"id":         c.ChunkUUID,
		"name":       c.Name,
		"language":   c.Language,
		"chunker":    c.ChunkerType,
		"start_line": c.StartLine,
		"end_line":   c.EndLine,
		"content":    c.Content,
	}
	if filePath != "" {
		view["file_path"] = filePath
	}
	if c.NodeType != "" {
		view["node_type"] = c.NodeType
	}
	if c.Category != "" {
		view["category"] = c.Category
		view["confidence"] = c.Confidence
		view["phase"] = c.Phase
		view["importance"] = c.Importance
	}
	return view
}

// chunkError maps chunking failures onto MCP errors
func chunkError(path string, err error) error {
	var binErr *types.BinaryFileError
	switch {
	case errors.As(err, &binErr):
		return newMCPError(ErrorCodeInvalidParams, "file is not valid UTF-8 text", map[string]interface{}{
			"path": path,
		})
	case errors.Is(err, types.ErrFileTooLarge):
		return newMCPError(ErrorCodeInvalidParams, "file exceeds the size limit", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "chunking failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}

// pathError maps path validation failures onto MCP errors
func pathError(err error) error {
	code := ErrorCodeInvalidParams
	if errors.Is(err, ErrPathNotFound) || errors.Is(err, ErrNotDirectory) {
		code = ErrorCodeProjectNotFound
	}
	return newMCPError(code, "invalid path", map[string]interface{}{
		"param":  "path",
		"reason": err.Error(),
	})
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateDirPath checks that path is an absolute, readable directory
func validateDirPath(path string) error {
	info, err := statAbs(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()
	return nil
}

// validateFilePath checks that path is an absolute regular file
func validateFilePath(path string) error {
	info, err := statAbs(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return ErrNotRegularFile
	}
	return nil
}

func statAbs(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return nil, ErrPathNotAbsolute
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, ErrPathNotReadable
	}
	return info, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// requireString extracts a required, non-empty string parameter
func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || strings.TrimSpace(val) == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	switch val := args[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNotRegularFile  = errors.New("path is not a regular file")
)
