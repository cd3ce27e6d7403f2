// Package server exposes the namespace dispatch hooks over HTTP.
//
// It is a thin adapter: request parsing, domain-error translation to status
// codes, and JSON encoding. All semantics live in pkg/namespace.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/trellisfs/trellis/internal/logger"
	"github.com/trellisfs/trellis/pkg/namespace"
)

// Healthchecker is the probe surface the health endpoint reports on.
type Healthchecker interface {
	Healthcheck(ctx context.Context) error
}

// Config contains the HTTP listener settings.
type Config struct {
	// Listen is the address to bind to (e.g. ":8080")
	Listen string

	// RequestTimeout bounds each in-flight request
	RequestTimeout time.Duration
}

// Server is the HTTP adapter over a namespace engine.
type Server struct {
	ns     *namespace.Namespace
	health Healthchecker
	router *chi.Mux
	http   *http.Server
}

// New creates the HTTP adapter and wires its routes.
func New(cfg Config, ns *namespace.Namespace, health Healthchecker) *Server {
	s := &Server{
		ns:     ns,
		health: health,
		router: chi.NewRouter(),
	}

	s.router.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	s.setupRoutes()

	s.http = &http.Server{
		Addr:    cfg.Listen,
		Handler: s.router,
	}

	return s
}

// setupRoutes registers all endpoints.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/domains/{domain}", func(r chi.Router) {
		r.Get("/paths/*", s.handleGetPath)
		r.Delete("/paths/*", s.handleDeletePath)

		r.Post("/uploads", s.handleInterceptCreate)
		r.Put("/uploads/{token}", s.handleOnStored)

		r.Post("/rename", s.handleRename)

		r.Put("/activation", s.handleEnableDomain)
		r.Delete("/activation", s.handleDisableDomain)
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called. A closed-server error is translated to nil.
func (s *Server) Start() error {
	logger.Info("HTTP adapter listening on %s", s.http.Addr)

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
