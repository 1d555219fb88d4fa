package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/askdb/askdb/internal/crypto"
	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/service"
	"github.com/askdb/askdb/internal/store"
)

func TestRequestID(t *testing.T) {
	var captured string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if captured == "" {
		t.Error("no request ID in context")
	}
	if rec.Header().Get("X-Request-ID") != captured {
		t.Error("response header does not match context ID")
	}

	// Client-provided IDs pass through.
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "client-id-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if captured != "client-id-1" {
		t.Errorf("captured = %q, want client-id-1", captured)
	}

	// Oversized client IDs are replaced with a fresh one.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if len(captured) > maxClientRequestID || strings.Contains(captured, "xxx") {
		t.Errorf("oversized client ID was accepted: %q", captured)
	}
}

func TestLoggerPreservesStatus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestLoggerRouteAndProbeLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	r := chi.NewRouter()
	r.Use(Logger(logger))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/api/project/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/project/42", nil))
	line := buf.String()
	if !strings.Contains(line, "route=/api/project/{id}") {
		t.Errorf("log line is missing the route pattern: %s", line)
	}
	if strings.Contains(line, "project/42") {
		t.Errorf("raw path leaked into the log line: %s", line)
	}

	// Probes log at debug, below the handler's level.
	buf.Reset()
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if buf.Len() != 0 {
		t.Errorf("probe request was logged at info: %s", buf.String())
	}
}

func newAuthFixture(t *testing.T) (*service.AuthService, string, int64) {
	t.Helper()
	cipher, _ := crypto.NewCipher("0123456789abcdef0123456789abcdef")
	st, err := store.NewStore("", cipher)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hash, _ := service.HashPassword("pw")
	u := &model.User{Email: "alice@example.com", PasswordHash: hash, IsActive: true}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	auth := service.NewAuthService(st, "test-secret")
	token, _, err := auth.Login(context.Background(), "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return auth, token, u.ID
}

func TestAuthenticate(t *testing.T) {
	auth, token, userID := newAuthFixture(t)

	var principal *service.Principal
	h := Authenticate(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal = GetPrincipal(r.Context())
	}))

	// No credentials.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", rec.Code)
	}

	// Session cookie.
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie auth: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if principal == nil || principal.UserID != userID {
		t.Errorf("principal = %+v", principal)
	}

	// Bearer header.
	principal = nil
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || principal == nil {
		t.Errorf("bearer auth: status = %d, principal = %+v", rec.Code, principal)
	}

	// Garbage token.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d", rec.Code)
	}
}
