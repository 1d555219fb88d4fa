package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/connector"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/model"
)

func newLLMStub(t *testing.T, completion string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"` + completion + `"}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateRequiresStoredKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newActiveUser(t, s, "alice@example.com", "pw")

	srv := newLLMStub(t, "SELECT 1;")
	qs := NewQueryService(s, connector.DefaultRegistry(), llm.NewClient(llm.WithBaseURL(srv.URL)))

	_, err := qs.Generate(ctx, u.ID, "count users", nil, nil)
	if err != ErrNoAPIKey {
		t.Fatalf("without key: got %v, want ErrNoAPIKey", err)
	}

	key := &model.APIKey{UserID: u.ID, Provider: "openai", Key: "sk-test"}
	if err := s.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}

	query, err := qs.Generate(ctx, u.ID, "count users",
		model.SelectedTables{"users": {"id"}}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if query != "SELECT 1;" {
		t.Errorf("query = %q", query)
	}

	// A key for another provider does not count.
	bob := newActiveUser(t, s, "bob@example.com", "pw")
	other := &model.APIKey{UserID: bob.ID, Provider: "anthropic", Key: "sk-ant"}
	if err := s.CreateAPIKey(ctx, other); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}
	if _, err := qs.Generate(ctx, bob.ID, "q", nil, nil); err != ErrNoAPIKey {
		t.Errorf("wrong provider: got %v, want ErrNoAPIKey", err)
	}
}

func TestExecuteUnknownType(t *testing.T) {
	s := newTestStore(t)
	qs := NewQueryService(s, connector.DefaultRegistry(), llm.NewClient())

	_, err := qs.Execute(context.Background(), model.DBConfig{Type: "cassandra"}, "SELECT 1")
	if err == nil || !strings.Contains(err.Error(), "unsupported database type") {
		t.Errorf("got %v, want unsupported type error", err)
	}
}

func TestFormatResult(t *testing.T) {
	if got := FormatResult(&model.QueryResult{Fields: []string{"n"}, Rows: []map[string]interface{}{}}); got != "No results." {
		t.Errorf("empty result = %q", got)
	}

	result := &model.QueryResult{
		Fields: []string{"id", "email"},
		Rows: []map[string]interface{}{
			{"id": "1", "email": "a@b.com"},
			{"id": "2", "email": "c@d.com"},
		},
	}
	got := FormatResult(result)
	if !strings.HasPrefix(got, "2 row(s):") {
		t.Errorf("formatted = %q", got)
	}
	if !strings.Contains(got, "a@b.com") {
		t.Errorf("formatted result missing data: %q", got)
	}

	// Oversized result sets are truncated, with total preserved.
	var big []map[string]interface{}
	for i := 0; i < 50; i++ {
		big = append(big, map[string]interface{}{"id": i})
	}
	got = FormatResult(&model.QueryResult{Fields: []string{"id"}, Rows: big})
	if !strings.HasPrefix(got, "50 row(s):") || !strings.Contains(got, "showing first 20") {
		t.Errorf("truncated result = %q", got)
	}
}
