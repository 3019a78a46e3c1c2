// Package server exposes code generation and explanation grading over HTTP
// for browser front ends that cannot hold provider keys themselves.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/faitholopade/codegate/internal/codegen"
)

// DefaultAddr is used when Config.Addr is empty.
const DefaultAddr = "127.0.0.1:8787"

const shutdownTimeout = 5 * time.Second

// Config holds the HTTP server configuration.
type Config struct {
	Addr string
	// Token, when set, must be presented as "Authorization: Bearer <token>"
	// on every generate-code request.
	Token string
	// AllowOrigin is echoed in Access-Control-Allow-Origin. Defaults to "*".
	AllowOrigin string

	Generator codegen.Generator
	Evaluator codegen.Evaluator
	Log       *zap.Logger
}

// Server wraps the HTTP server with its configuration.
type Server struct {
	cfg Config
	srv *http.Server
	log *zap.Logger
}

// New creates a server. Generator and Evaluator are required.
func New(cfg Config) (*Server, error) {
	if cfg.Generator == nil || cfg.Evaluator == nil {
		return nil, errors.New("server: generator and evaluator are required")
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.AllowOrigin == "" {
		cfg.AllowOrigin = "*"
	}

	mux := http.NewServeMux()
	s := &Server{
		cfg: cfg,
		log: cfg.Log,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.registerRoutes(mux)
	return s, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }
	s.log.Info("http server starting", zap.String("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server error: %w", err)
	}
}
