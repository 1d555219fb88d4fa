package mcp

import (
	"context"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/askdb/askdb/internal/model"
)

// registerTools registers the askdb MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	srv.AddTool(
		mcp.NewTool("askdb_list_projects",
			mcp.WithDescription(
				"List the registered database projects: name, database type, connection "+
					"status, and the tables selected for querying. Use this first to find "+
					"the project_id for the other tools. Connection secrets are never returned.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListProjects,
	)

	srv.AddTool(
		mcp.NewTool("askdb_get_schema",
			mcp.WithDescription(
				"Introspect a project's live database and return its base tables with "+
					"columns plus the foreign-key relationships. Only relational projects "+
					"(postgresql, mysql, cockroachdb, timescaledb) support this.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("project_id",
				mcp.Required(),
				mcp.Description("ID of the project, from askdb_list_projects"),
			),
		),
		s.handleGetSchema,
	)

	srv.AddTool(
		mcp.NewTool("askdb_generate_query",
			mcp.WithDescription(
				"Generate a SQL query from a natural-language request using the project's "+
					"stored schema projection and the user's OpenAI API key. Returns the SQL "+
					"text without executing it.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("project_id",
				mcp.Required(),
				mcp.Description("ID of the project whose schema grounds the generation"),
			),
			mcp.WithString("request",
				mcp.Required(),
				mcp.Description("Natural-language description of the data to fetch"),
			),
		),
		s.handleGenerateQuery,
	)

	srv.AddTool(
		mcp.NewTool("askdb_execute_query",
			mcp.WithDescription(
				"Execute a SQL query against a project's database and return the rows "+
					"and result column names as JSON. The query runs as written.",
			),
			mcp.WithString("project_id",
				mcp.Required(),
				mcp.Description("ID of the project to run against"),
			),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("SQL to execute"),
			),
		),
		s.handleExecuteQuery,
	)
}

// projectSummary is the secret-free view of a project returned to MCP
// clients.
type projectSummary struct {
	ID               string               `json:"id"`
	Name             string               `json:"project_name"`
	DBType           string               `json:"db_type"`
	ConnectionStatus string               `json:"connectionStatus"`
	SelectedTables   model.SelectedTables `json:"selected_tables"`
	Relationships    model.Relationships  `json:"table_relationships"`
}

func (s *MCPServer) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.ListProjects(ctx, s.userID)
	if err != nil {
		return toolError("failed to list projects: %v", err)
	}

	out := make([]projectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectSummary{
			ID:               strconv.FormatInt(p.ID, 10),
			Name:             p.Name,
			DBType:           p.DBCredential.Type,
			ConnectionStatus: string(p.ConnectionStatus),
			SelectedTables:   p.SelectedTables,
			Relationships:    p.TableRelationships,
		})
	}
	return successJSON(map[string]interface{}{
		"count":    len(out),
		"projects": out,
	})
}

func (s *MCPServer) handleGetSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := request.RequireString("project_id")
	if err != nil {
		return toolError("missing required parameter %q", "project_id")
	}

	project, err := s.project(ctx, idStr)
	if err != nil {
		return toolError("%v", err)
	}

	schema, err := s.queries.FetchSchema(ctx, project.DBCredential)
	if err != nil {
		return toolError("schema introspection failed: %v", err)
	}
	return successJSON(schema)
}

func (s *MCPServer) handleGenerateQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := request.RequireString("project_id")
	if err != nil {
		return toolError("missing required parameter %q", "project_id")
	}
	input, err := request.RequireString("request")
	if err != nil {
		return toolError("missing required parameter %q", "request")
	}

	project, err := s.project(ctx, idStr)
	if err != nil {
		return toolError("%v", err)
	}

	query, err := s.queries.Generate(ctx, s.userID, input, project.SelectedTables, project.TableRelationships)
	if err != nil {
		return toolError("query generation failed: %v", err)
	}
	return successJSON(map[string]string{"query": query})
}

func (s *MCPServer) handleExecuteQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := request.RequireString("project_id")
	if err != nil {
		return toolError("missing required parameter %q", "project_id")
	}
	query, err := request.RequireString("query")
	if err != nil {
		return toolError("missing required parameter %q", "query")
	}

	project, err := s.project(ctx, idStr)
	if err != nil {
		return toolError("%v", err)
	}

	result, err := s.queries.Execute(ctx, project.DBCredential, query)
	if err != nil {
		return toolError("query execution failed: %v", err)
	}
	return successJSON(result)
}
