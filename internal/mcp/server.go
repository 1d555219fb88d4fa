// Package mcp exposes one user's projects and the query pipeline as MCP
// tools, so AI agents can explore registered databases and run the
// generate/execute cycle over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/service"
	"github.com/askdb/askdb/internal/store"
)

// MCPServer wraps the mcp-go server with the askdb tool registrations. All
// tools operate on behalf of a single user fixed at startup; MCP clients are
// local processes, not multi-tenant callers.
type MCPServer struct {
	store   *store.Store
	queries *service.QueryService
	userID  int64
	logger  *slog.Logger
	server  *server.MCPServer
}

// NewMCPServer creates an MCPServer bound to the given user, pre-loaded with
// the askdb tools. The returned server is ready to serve over stdio.
func NewMCPServer(st *store.Store, queries *service.QueryService, userID int64, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		store:   st,
		queries: queries,
		userID:  userID,
		logger:  logger,
	}

	mcpServer := server.NewMCPServer(
		"AskDB",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)
	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance, useful for
// testing.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, the integration path for
// clients that launch the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode", "user_id", s.userID)
	return server.ServeStdio(s.server)
}

// project resolves a project_id tool argument to a project owned by the
// bound user.
func (s *MCPServer) project(ctx context.Context, idStr string) (*model.Project, error) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid project_id %q", idStr)
	}
	p, err := s.store.GetProject(ctx, id)
	if err != nil || p.UserID != s.userID {
		return nil, fmt.Errorf("project %s not found", idStr)
	}
	return p, nil
}

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way are
// visible to the LLM so it can self-correct; they do NOT terminate the MCP
// session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}
}

func boolPtr(b bool) *bool {
	return &b
}
