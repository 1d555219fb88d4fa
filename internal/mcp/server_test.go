package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/askdb/askdb/internal/connector"
	"github.com/askdb/askdb/internal/crypto"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/service"
	"github.com/askdb/askdb/internal/store"
)

const testCipherKey = "0123456789abcdef0123456789abcdef"

func newTestMCPServer(t *testing.T) (*MCPServer, *store.Store, *model.User) {
	t.Helper()

	cipher, err := crypto.NewCipher(testCipherKey)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	st, err := store.NewStore("", cipher)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	u := &model.User{
		Email: "alice@example.com", IsActive: true,
		CreatedBy: "alice@example.com", ModifiedBy: "alice@example.com",
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	queries := service.NewQueryService(st, connector.DefaultRegistry(), llm.NewClient())
	return NewMCPServer(st, queries, u.ID, logger), st, u
}

func newToolRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func seedProject(t *testing.T, st *store.Store, u *model.User, cfg model.DBConfig) *model.Project {
	t.Helper()
	p := &model.Project{
		UserID:           u.ID,
		Name:             "analytics",
		DBCredential:     cfg,
		SelectedTables:   model.SelectedTables{"users": {"id", "email"}},
		ConnectionStatus: model.StatusConnected,
		CreatedBy:        u.Email,
		ModifiedBy:       u.Email,
	}
	if err := st.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p
}

func TestListProjectsHidesSecrets(t *testing.T) {
	srv, st, u := newTestMCPServer(t)
	seedProject(t, st, u, model.DBConfig{
		Type: model.DBPostgres, Host: "db", DBName: "shop",
		User: "reader", Password: "s3cret-password",
	})

	result, err := srv.handleListProjects(context.Background(), newToolRequest(nil))
	if err != nil {
		t.Fatalf("handleListProjects: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	text := resultText(t, result)
	if strings.Contains(text, "s3cret-password") {
		t.Error("connection password leaked into the tool result")
	}

	var out struct {
		Count    int `json:"count"`
		Projects []struct {
			Name   string `json:"project_name"`
			DBType string `json:"db_type"`
		} `json:"projects"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 1 || out.Projects[0].Name != "analytics" || out.Projects[0].DBType != "postgresql" {
		t.Errorf("out = %+v", out)
	}
}

func TestExecuteQuerySQLiteProject(t *testing.T) {
	srv, st, u := newTestMCPServer(t)
	p := seedProject(t, st, u, model.DBConfig{
		Type: model.DBSQLite, FilePath: ":memory:",
	})

	result, err := srv.handleExecuteQuery(context.Background(), newToolRequest(map[string]any{
		"project_id": strconv.FormatInt(p.ID, 10),
		"query":      "SELECT 7 AS answer",
	}))
	if err != nil {
		t.Fatalf("handleExecuteQuery: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), `"answer"`) {
		t.Errorf("result = %s", resultText(t, result))
	}
}

func TestToolErrorsDoNotTerminate(t *testing.T) {
	srv, _, _ := newTestMCPServer(t)

	// Unknown project.
	result, err := srv.handleGetSchema(context.Background(), newToolRequest(map[string]any{
		"project_id": "424242",
	}))
	if err != nil {
		t.Fatalf("handleGetSchema: %v", err)
	}
	if !result.IsError {
		t.Error("expected a tool-level error for an unknown project")
	}

	// Missing argument.
	result, err = srv.handleGenerateQuery(context.Background(), newToolRequest(nil))
	if err != nil {
		t.Fatalf("handleGenerateQuery: %v", err)
	}
	if !result.IsError {
		t.Error("expected a tool-level error for a missing argument")
	}
}

func TestGetSchemaUnsupportedProject(t *testing.T) {
	srv, st, u := newTestMCPServer(t)
	p := seedProject(t, st, u, model.DBConfig{Type: model.DBRedis, Host: "cache"})

	result, err := srv.handleGetSchema(context.Background(), newToolRequest(map[string]any{
		"project_id": strconv.FormatInt(p.ID, 10),
	}))
	if err != nil {
		t.Fatalf("handleGetSchema: %v", err)
	}
	if !result.IsError {
		t.Error("expected a tool-level error for a non-relational project")
	}
}
