// Package gateway exposes the assistant over HTTP with SSE streaming.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"jobagent/internal/agent"
	"jobagent/internal/channels"
	"jobagent/internal/jobsearch"
	"jobagent/internal/tools"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

// Assistant is the part of jobsearch.Assistant the gateway serves.
type Assistant interface {
	agent.Runner
	Spec() *jobsearch.OrchestratorSpec
	Workspace() *tools.Workspace
	Todos() *tools.Todos
}

// SessionLister is implemented by the history store.
type SessionLister interface {
	Sessions(ctx context.Context) ([]string, error)
}

type Server struct {
	assistant Assistant
	sessions  SessionLister
	mux       *http.ServeMux

	mu   sync.Mutex
	runs map[string]context.CancelFunc
}

// NewServer returns a server for a. sessions may be nil when history is
// disabled. Channels get their routes mounted on the same mux.
func NewServer(a Assistant, sessions SessionLister, chs ...channels.Channel) *Server {
	s := &Server{
		assistant: a,
		sessions:  sessions,
		mux:       http.NewServeMux(),
		runs:      make(map[string]context.CancelFunc),
	}
	s.routes()
	for _, ch := range chs {
		ch.RegisterRoutes(s.mux)
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/chat", s.handleChat)
	s.mux.HandleFunc("GET /v1/agents", s.handleAgents)
	s.mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	s.mux.HandleFunc("GET /v1/sessions/{id}/files", s.handleListFiles)
	s.mux.HandleFunc("GET /v1/sessions/{id}/files/{name}", s.handleGetFile)
	s.mux.HandleFunc("GET /v1/sessions/{id}/todos", s.handleTodos)
	s.mux.HandleFunc("DELETE /v1/sessions/{id}/run", s.handleCancelRun)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.mux, "gateway")
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.cancelAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("gateway stopped")
	return nil
}

// startRun registers a cancellable run for session. It reports false if
// one is already in flight.
func (s *Server) startRun(ctx context.Context, session string) (context.Context, func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.runs[session]; busy {
		return nil, nil, false
	}
	ctx, cancel := context.WithCancel(ctx)
	s.runs[session] = cancel
	return ctx, func() {
		s.mu.Lock()
		delete(s.runs, session)
		s.mu.Unlock()
		cancel()
	}, true
}

func (s *Server) cancelRun(session string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.runs[session]
	if ok {
		cancel()
	}
	return ok
}

func (s *Server) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.runs {
		cancel()
	}
}
