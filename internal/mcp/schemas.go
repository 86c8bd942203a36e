package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/codeweave/internal/searcher"
	"github.com/dshills/codeweave/internal/semantic"
)

// Search limits accepted by search_chunks
const (
	DefaultSearchLimit = searcher.DefaultLimit
	MaxSearchLimit     = searcher.MaxLimit
)

// chunkFileTool returns the tool definition for chunk_file
func chunkFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_file",
		Description: "Split a source file into semantic chunks and classify each one",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the file to chunk",
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Language override (e.g. go, python, rust). Detected from the extension when omitted",
				},
			},
			Required: []string{"path"},
		},
	}
}

// classifyNodeTool returns the tool definition for classify_node
func classifyNodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "classify_node",
		Description: "Classify a syntax node type into a semantic category with a confidence score",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node_type": map[string]interface{}{
					"type":        "string",
					"description": "Parser node type, e.g. function_declaration or if_statement",
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Source language of the node",
				},
				"context": map[string]interface{}{
					"type":        "string",
					"description": "Optional surrounding source text used for pattern matching",
				},
				"parent_type": map[string]interface{}{
					"type":        "string",
					"description": "Optional node type of the parent node",
				},
			},
			Required: []string{"node_type", "language"},
		},
	}
}

// indexRepositoryTool returns the tool definition for index_repository
func indexRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_repository",
		Description: "Chunk, classify and index every supported file in a repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository root",
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-index all files ignoring file hashes (full rebuild)",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchChunksTool returns the tool definition for search_chunks
func searchChunksTool() mcp.Tool {
	categories := semantic.Categories()
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.String()
	}

	return mcp.Tool{
		Name:        "search_chunks",
		Description: "Keyword search (BM25) over the indexed chunks of a repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed repository",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search keywords",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     DefaultSearchLimit,
					"minimum":     1,
					"maximum":     MaxSearchLimit,
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Only return chunks in this language",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Only return chunks classified into this category",
					"enum":        names,
				},
				"file_pattern": map[string]interface{}{
					"type":        "string",
					"description": "Glob pattern for file paths (e.g., 'internal/*')",
				},
				"min_confidence": map[string]interface{}{
					"type":        "number",
					"description": "Minimum classification confidence (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and classification statistics for a repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository",
				},
			},
			Required: []string{"path"},
		},
	}
}
