// Package server wires the HTTP API: routing, middleware, probes, and
// graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"golang.org/x/oauth2"

	"github.com/askdb/askdb/internal/handler"
	"github.com/askdb/askdb/internal/mail"
	"github.com/askdb/askdb/internal/openapi"
	"github.com/askdb/askdb/internal/server/middleware"
	"github.com/askdb/askdb/internal/service"
	"github.com/askdb/askdb/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	BaseURL         string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		BaseURL:         "http://localhost:8080",
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
	}
}

// Server is the top-level HTTP server. It owns the Chi router and holds the
// store, services, and agent manager it serves.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	authSvc    *service.AuthService
	queries    *service.QueryService
	agents     *service.AgentManager
	mailer     *mail.Mailer
	oauth      *oauth2.Config
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. mailer and oauth may be nil when unconfigured.
func New(cfg Config, st *store.Store, authSvc *service.AuthService, queries *service.QueryService, agents *service.AgentManager, mailer *mail.Mailer, oauth *oauth2.Config, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		authSvc: authSvc,
		queries: queries,
		agents:  agents,
		mailer:  mailer,
		oauth:   oauth,
		logger:  logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	// --- OpenAPI document (no auth required) ---
	doc, err := json.Marshal(openapi.Generate(s.cfg.BaseURL))
	if err != nil {
		s.logger.Error("openapi document generation failed", "error", err)
	}
	r.Get("/openapi.json", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(doc)
	})

	authH := handler.NewAuthHandler(s.store, s.authSvc, s.mailer, s.oauth, s.cfg.BaseURL, s.logger)
	keyH := handler.NewAPIKeyHandler(s.store)
	credH := handler.NewCredentialHandler(s.store, s.agents, s.logger)
	projectH := handler.NewProjectHandler(s.store)
	agentH := handler.NewAgentHandler(s.store, s.agents, s.logger)
	dbConnH := handler.NewDBConnHandler(s.queries)
	queryH := handler.NewQueryHandler(s.queries)

	r.Route("/api", func(r chi.Router) {
		// Credential-bearing endpoints are rate limited by source IP to slow
		// down guessing.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(10, time.Minute))

			r.Post("/auth/signup", authH.Signup)
			r.Post("/auth/login", authH.Login)
		})
		r.Get("/auth/verify-email", authH.VerifyEmail)
		r.Get("/auth/google", authH.GoogleRedirect)
		r.Get("/auth/google/callback", authH.GoogleCallback)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.authSvc))

			r.Post("/auth/logout", authH.Logout)

			r.Get("/apikeys", keyH.List)
			r.Post("/apikeys", keyH.Create)
			r.Delete("/apikeys", keyH.Delete)

			r.Get("/credentials", credH.List)
			r.Post("/credentials", credH.Create)
			r.Delete("/credentials", credH.Delete)

			r.Get("/project", projectH.List)
			r.Post("/project", projectH.Create)
			r.Get("/project/{id}", projectH.Get)

			r.Get("/agent", agentH.List)
			r.Post("/agent", agentH.Create)
			r.Put("/agent", agentH.Toggle)
			r.Delete("/agent", agentH.Delete)

			r.Post("/db-connection/test-connection", dbConnH.TestConnection)
			r.Post("/db-connection/get-schema", dbConnH.GetSchema)
			r.Post("/generate-query", queryH.Generate)
			r.Post("/execute-query", queryH.Execute)
		})
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the store is
// reachable, 503 otherwise. External project databases are deliberately not
// probed here; an unreachable user database must not take the service out
// of rotation.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "degraded",
			"store":  "error: " + err.Error(),
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"store":  "ok",
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests and stopping agent relays.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.agents.StopAll()
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
