// Package server provides the HTTP API for qassist: the streaming chat relay
// plus knowledge, program and prompt endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/totalquality/qassist/internal/config"
	"github.com/totalquality/qassist/internal/knowledge"
	"github.com/totalquality/qassist/internal/metrics"
	"github.com/totalquality/qassist/internal/prompt"
	"github.com/totalquality/qassist/internal/search"
)

// Server is the HTTP server for the qassist API.
type Server struct {
	engine    *search.Engine
	knowledge *knowledge.Reloader
	prompts   *prompt.Composer
	relay     http.Handler
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	kb *knowledge.Reloader,
	prompts *prompt.Composer,
	relay http.Handler,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:    engine,
		knowledge: kb,
		prompts:   prompts,
		relay:     relay,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// The relay streams for as long as the provider does, so it sits outside
	// the timeout group. It answers every method so non-POST gets a JSON 405.
	r.Handle("/api/chat", s.relay)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.Compress(5))

		r.Get("/api/v1/knowledge/search", s.handleSearch)
		r.Get("/api/v1/knowledge/{id}", s.handleGetEntry)
		r.Get("/api/v1/suggestions", s.handleSuggestions)
		r.Post("/api/v1/programs/match", s.handleMatchPrograms)
		r.Post("/api/v1/prompt", s.handlePrompt)
		r.Get("/api/v1/status", s.handleStatus)
		r.Get("/health", s.handleHealth)
		r.Handle("/metrics", metrics.Handler())
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
