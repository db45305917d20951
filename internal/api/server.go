package api

import (
	"context"
	"net/http"
	"time"

	"github.com/microlearning/site-api/internal/config"
)

// Server represents the API server
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new API server around handler.
func NewServer(cfg config.ServerConfig, handler http.Handler) *Server {
	return &Server{config: cfg, handler: handler}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.server = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.WriteTimeout(),
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
