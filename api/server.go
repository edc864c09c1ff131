// Package api provides the HTTP REST API for VitalDesk.
//
// Endpoints:
//
//	POST /api/chat              chat exchange (tools + optional RAG)
//	GET  /api/chat/rag-status   retrieval subsystem status
//	GET  /api/appointments      list appointments
//	POST /api/appointments      create appointment
//	DELETE /api/appointments/{id}
//	(same CRUD for prescriptions, fitness_plans, meal_plans)
//	POST /api/fitness_plans/generate   rule-based personalized plan
//	GET  /health                liveness probe
//	GET  /ready                 readiness probe
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: health check endpoints
//   - chat.go: chat + rag-status endpoints
//   - records.go: record CRUD endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitaldesk/vitaldesk/internal/agent/chat"
	"github.com/vitaldesk/vitaldesk/internal/log"
	"github.com/vitaldesk/vitaldesk/internal/rag"
	"github.com/vitaldesk/vitaldesk/internal/store"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:3400"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds request header reads (Slowloris).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Model calls dominate chat latency, so this is generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout caps keep-alive connection idleness.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the VitalDesk REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health  *HealthHandler
	chat    *ChatHandler
	records *RecordsHandler
}

// NewServer creates an HTTP server with all routes registered.
// pool may be nil when no vector database is configured; readiness then
// skips the database ping.
func NewServer(assistant *chat.Assistant, reporter *rag.Reporter, st *store.Store, pool *pgxpool.Pool, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  logger,
		health:  NewHealthHandler(pool, logger),
		chat:    NewChatHandler(assistant, reporter, logger),
		records: NewRecordsHandler(st, logger),
	}

	s.health.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)
	s.records.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
