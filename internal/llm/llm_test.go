package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	tables := model.SelectedTables{
		"users":  {"id", "email"},
		"orders": {"id", "user_id", "total"},
	}
	rels := model.Relationships{
		"orders": {"user_id": {References: "users.id"}},
	}

	prompt := BuildPrompt("show users with orders", tables, rels)

	if !strings.Contains(prompt, "users (id, email)\n") {
		t.Errorf("prompt missing users table line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "orders (id, user_id, total)\n") {
		t.Errorf("prompt missing orders table line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "orders.user_id -> users.id\n") {
		t.Errorf("prompt missing relationship line:\n%s", prompt)
	}
	if !strings.Contains(prompt, `User Request: "show users with orders"`) {
		t.Errorf("prompt missing user request:\n%s", prompt)
	}
	if !strings.Contains(prompt, "COUNT(DISTINCT column_name)") {
		t.Errorf("prompt missing rule block:\n%s", prompt)
	}

	// Tables are sorted, so orders comes before users.
	if strings.Index(prompt, "orders (") > strings.Index(prompt, "users (") {
		t.Error("tables not emitted in sorted order")
	}

	// Same inputs, same prompt.
	if again := BuildPrompt("show users with orders", tables, rels); again != prompt {
		t.Error("prompt is not deterministic")
	}
}

func TestCompleteSendsExpectedPayload(t *testing.T) {
	var got chatRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  SELECT 1;  "}}]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithModel("gpt-4o-mini"))
	query, err := c.Complete(context.Background(), "sk-test", "the prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if query != "SELECT 1;" {
		t.Errorf("query = %q, want trimmed completion", query)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", got.Model)
	}
	if got.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", got.Temperature)
	}
	if got.MaxTokens != 500 {
		t.Errorf("max_tokens = %d, want 500", got.MaxTokens)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "the prompt" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestCompleteEmptyChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.Complete(context.Background(), "sk-test", "p"); err != ErrNoQuery {
		t.Errorf("got %v, want ErrNoQuery", err)
	}
}

func TestCompleteProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), "sk-bad", "p")
	if err == nil || !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Errorf("got %v, want provider message surfaced", err)
	}
}
