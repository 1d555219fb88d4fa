package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/askdb/askdb/internal/connector"
	"github.com/askdb/askdb/internal/crypto"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/server/middleware"
	"github.com/askdb/askdb/internal/service"
	"github.com/askdb/askdb/internal/store"
)

const (
	testJWTSecret = "test-secret-for-handler-tests"
	testCipherKey = "0123456789abcdef0123456789abcdef"
	testPassword  = "supersecretpassword"
)

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store     *store.Store
	authSvc   *service.AuthService
	queries   *service.QueryService
	agents    *service.AgentManager
	credH     *CredentialHandler
	router    chi.Router
	principal *service.Principal

	mu         sync.Mutex
	lastPrompt string
	llmReply   string
}

// setLLMReply overrides the canned completion the stub LLM server returns.
func (e *testEnv) setLLMReply(reply string) {
	e.mu.Lock()
	e.llmReply = reply
	e.mu.Unlock()
}

// newTestEnv creates a fresh environment: an in-memory store, a canned LLM
// server, and a Chi router with the full API mounted. Protected routes get
// the principal from env.principal instead of a real token.
func newTestEnv(t *testing.T) *testEnv {
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

	env := &testEnv{store: st, llmReply: "SELECT id FROM users;"}

	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		env.mu.Lock()
		if len(req.Messages) > 0 {
			env.lastPrompt = req.Messages[0].Content
		}
		reply := env.llmReply
		env.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": reply}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(llmSrv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.authSvc = service.NewAuthService(st, testJWTSecret)
	env.queries = service.NewQueryService(st, connector.DefaultRegistry(), llm.NewClient(llm.WithBaseURL(llmSrv.URL)))
	env.agents = service.NewAgentManager(st, env.queries, logger)

	authH := NewAuthHandler(st, env.authSvc, nil, nil, "http://localhost:3000", logger)
	keyH := NewAPIKeyHandler(st)
	env.credH = NewCredentialHandler(st, env.agents, logger)
	projectH := NewProjectHandler(st)
	agentH := NewAgentHandler(st, env.agents, logger)
	dbConnH := NewDBConnHandler(env.queries)
	queryH := NewQueryHandler(env.queries)

	r := chi.NewRouter()
	r.Post("/api/auth/signup", authH.Signup)
	r.Get("/api/auth/verify-email", authH.VerifyEmail)
	r.Post("/api/auth/login", authH.Login)
	r.Get("/api/auth/google", authH.GoogleRedirect)

	r.Group(func(r chi.Router) {
		r.Use(env.injectPrincipal)

		r.Post("/api/auth/logout", authH.Logout)

		r.Get("/api/apikeys", keyH.List)
		r.Post("/api/apikeys", keyH.Create)
		r.Delete("/api/apikeys", keyH.Delete)

		r.Get("/api/credentials", env.credH.List)
		r.Post("/api/credentials", env.credH.Create)
		r.Delete("/api/credentials", env.credH.Delete)

		r.Get("/api/project", projectH.List)
		r.Post("/api/project", projectH.Create)
		r.Get("/api/project/{id}", projectH.Get)

		r.Get("/api/agent", agentH.List)
		r.Post("/api/agent", agentH.Create)
		r.Put("/api/agent", agentH.Toggle)
		r.Delete("/api/agent", agentH.Delete)

		r.Post("/api/db-connection/test-connection", dbConnH.TestConnection)
		r.Post("/api/db-connection/get-schema", dbConnH.GetSchema)
		r.Post("/api/generate-query", queryH.Generate)
		r.Post("/api/execute-query", queryH.Execute)
	})
	env.router = r

	return env
}

// injectPrincipal attaches env.principal to the request, standing in for the
// real session middleware.
func (e *testEnv) injectPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if e.principal != nil {
			r = r.WithContext(middleware.WithPrincipal(r.Context(), e.principal))
		}
		next.ServeHTTP(w, r)
	})
}

// seedUser creates an active account and makes it the request principal.
func (e *testEnv) seedUser(t *testing.T, email string) *model.User {
	t.Helper()
	hash, err := service.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		IsActive:     true,
		CreatedBy:    email,
		ModifiedBy:   email,
	}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seedUser: %v", err)
	}
	e.principal = &service.Principal{UserID: u.ID, Email: u.Email}
	return u
}

// do executes an HTTP request against the test router.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}
