// Package mcp implements the Model Context Protocol (MCP) server for codeweave.
//
// The server exposes five tools to AI coding assistants:
//   - chunk_file: split one file into classified semantic chunks
//   - classify_node: classify a parser node type into a semantic category
//   - index_repository: chunk, classify and store every file of a repository
//   - search_chunks: BM25 keyword search over indexed chunks
//   - get_status: indexing status and classification statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Stdout carries the protocol, so all logging goes to stderr.
//
// # Basic Usage
//
//	codeweave serve
//
// # Tool: chunk_file
//
//	Request:
//	{
//	  "name": "chunk_file",
//	  "arguments": {"path": "/path/to/file.py", "language": "python"}
//	}
//
//	Response:
//	{
//	  "path": "/path/to/file.py",
//	  "language": "python",
//	  "chunker": "tree_sitter",
//	  "chunk_count": 3,
//	  "chunks": [
//	    {
//	      "id": "…",
//	      "name": "greet",
//	      "node_type": "function_definition",
//	      "category": "DEFINITION_CALLABLE",
//	      "confidence": 1.0,
//	      "phase": "OVERRIDE",
//	      "start_line": 1,
//	      "end_line": 2,
//	      "content": "def greet(name): …"
//	    }
//	  ]
//	}
//
// # Tool: classify_node
//
//	Request:
//	{
//	  "name": "classify_node",
//	  "arguments": {"node_type": "for_statement", "language": "go", "parent_type": "block"}
//	}
//
// Results below 0.8 confidence also list alternative categories.
//
// # Tool: index_repository
//
//	Request:
//	{
//	  "name": "index_repository",
//	  "arguments": {"path": "/path/to/repo", "force_reindex": false}
//	}
//
// Unchanged files are skipped by content hash. Files that fail to chunk are
// counted and reported without aborting the run.
//
// # Tool: search_chunks
//
//	Request:
//	{
//	  "name": "search_chunks",
//	  "arguments": {
//	    "path": "/path/to/repo",
//	    "query": "parse config",
//	    "limit": 10,
//	    "language": "go",
//	    "category": "DEFINITION_CALLABLE"
//	  }
//	}
//
// Scores are bm25 values normalized onto (0, 1]; ties prefer more important
// chunks.
//
// # Error Handling
//
// Handlers return *MCPError values carrying JSON-RPC codes:
//
//	-32602  invalid parameters
//	-32603  internal error
//	-32001  path does not exist or is not a directory
//	-32002  indexing already in progress
//	-32003  project not indexed
//	-32004  empty query
package mcp
