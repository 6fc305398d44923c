// Package api provides the local HTTP API over the archive store and
// scheduler.
package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Nurdvu1et/email-archiver/internal/config"
	"github.com/Nurdvu1et/email-archiver/internal/scheduler"
	"github.com/Nurdvu1et/email-archiver/internal/store"
)

// EmailStore defines the store operations the API needs.
type EmailStore interface {
	GetStats() (*store.Stats, error)
	ListArchived(offset, limit int) ([]store.SearchResult, int64, error)
	GetArchived(id int64) (*store.SearchResult, error)
	SearchArchived(query string) ([]store.SearchResult, error)
}

// RunScheduler defines the scheduler operations the API needs.
type RunScheduler interface {
	Trigger(name string) error
	Status() []scheduler.JobStatus
	IsRunning() bool
}

// Server is the HTTP API server.
type Server struct {
	cfg         *config.Config
	store       EmailStore
	scheduler   RunScheduler
	jobName     string // scheduler job triggered by POST /archive/run
	logger      *slog.Logger
	router      chi.Router
	server      *http.Server
	rateLimiter *RateLimiter
}

// NewServer creates an API server. jobName is the scheduler job that
// manual run requests trigger.
func NewServer(cfg *config.Config, st EmailStore, sched RunScheduler, jobName string, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		store:     st,
		scheduler: sched,
		jobName:   jobName,
		logger:    logger,
	}
	s.router = s.setupRouter()
	return s
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.loggerMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	// CORS is disabled unless origins are configured.
	r.Use(CORSMiddleware(CORSConfig{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         86400,
	}))

	s.rateLimiter = NewRateLimiter(10, 20)
	r.Use(RateLimitMiddleware(s.rateLimiter))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/stats", s.handleStats)
		r.Get("/emails", s.handleListEmails)
		r.Get("/emails/{id}", s.handleGetEmail)
		r.Get("/search", s.handleSearch)
		r.Get("/scheduler/status", s.handleSchedulerStatus)
		r.Post("/archive/run", s.handleTriggerRun)
	})

	return r
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	bindAddr := s.cfg.Server.BindAddr
	if bindAddr == "" {
		bindAddr = "127.0.0.1"
	}
	addr := net.JoinHostPort(bindAddr, strconv.Itoa(s.cfg.Server.Port))

	if s.cfg.Server.APIKey == "" {
		s.logger.Warn("API server running without authentication, set [server] api_key in config.toml")
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// loggerMiddleware logs HTTP requests.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// authMiddleware validates the API key with a constant-time compare.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No key configured means auth is off (with a startup warning).
		if s.cfg.Server.APIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			authHeader = r.Header.Get("X-API-Key")
		}
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			authHeader = authHeader[7:]
		}

		if subtle.ConstantTimeCompare([]byte(authHeader), []byte(s.cfg.Server.APIKey)) != 1 {
			s.logger.Warn("unauthorized API request",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
