package statusapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Server runs the read-only status HTTP endpoint.
type Server struct {
	addr     string
	handlers *Handlers
	server   *http.Server
	logger   *slog.Logger
}

// NewServer builds a Server bound to addr (e.g. ":8090"), serving against
// provider's live executor state.
func NewServer(addr string, provider StateProvider, logger *slog.Logger) *Server {
	handlers := NewHandlers(provider, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/status", handlers.HandleStatus)

	return &Server{
		addr: addr,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		handlers: handlers,
		logger:   logger.With("component", "statusapi-server"),
	}
}

// Start blocks serving HTTP until the server is stopped.
func (s *Server) Start() error {
	s.logger.Info("status server starting", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.logger.Info("stopping status server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
