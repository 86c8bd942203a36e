package mcp

import (
	"context"
	"errors"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/codeweave/internal/app"
)

const (
	// ServerName is the MCP server name
	ServerName = "codeweave"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	app    *app.App
	logger *zap.Logger
}

// NewServer creates a new MCP server over an app with storage attached
func NewServer(a *app.App) (*Server, error) {
	if a == nil || a.Storage == nil || a.Indexer == nil || a.Searcher == nil {
		return nil, errors.New("app with storage is required")
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		mcp:    mcpServer,
		app:    a,
		logger: a.Logger.Named("mcp"),
	}
	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until the client
// disconnects or ctx is cancelled. The app is closed on return.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.app.Close() }()

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	s.logger.Info("MCP server ready, listening on stdio")
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(chunkFileTool(), s.handleChunkFile)
	s.mcp.AddTool(classifyNodeTool(), s.handleClassifyNode)
	s.mcp.AddTool(indexRepositoryTool(), s.handleIndexRepository)
	s.mcp.AddTool(searchChunksTool(), s.handleSearchChunks)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
