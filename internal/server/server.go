// Package server is the reference analysis backend. It exposes the
// /analyze and /ask endpoints the client talks to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ppiankov/termslens/internal/model"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// Analyzer is the analysis engine behind the endpoints
type Analyzer interface {
	Analyze(ctx context.Context, url string) (*model.AnalysisResult, error)
	Ask(ctx context.Context, url, question string, forwarded json.RawMessage) (string, error)
}

// Server serves the backend API
type Server struct {
	analyzer Analyzer
	checks   map[string]HealthChecker
	cfg      model.ServerConfig
	mux      chi.Router
}

// New builds the router. checks are reported by GET /health.
func New(analyzer Analyzer, cfg model.ServerConfig, checks map[string]HealthChecker) *Server {
	s := &Server{analyzer: analyzer, checks: checks, cfg: cfg}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(RequestID)
	mux.Use(AccessLog)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	mux.Get("/health", s.handleHealth)
	mux.Post("/analyze", s.wrap(s.handleAnalyze))
	mux.Post("/ask", s.wrap(s.handleAsk))

	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run listens on the configured address until ctx is cancelled, then
// drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", s.cfg.Addr).Info("Backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down backend")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
