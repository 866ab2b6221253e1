// Package api exposes the run history and the batch trigger surface over
// HTTP, plus a server-sent event stream of run progress.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hochfrequenz/case-archiver/internal/domain"
	"github.com/hochfrequenz/case-archiver/internal/history"
)

// Store interface for run history lookups
type Store interface {
	ListRuns(opts history.ListOptions) ([]*domain.BatchRun, error)
	GetRun(id string) (*domain.BatchRun, error)
	AttemptsByRun(runID string) ([]*domain.ArchiveAttempt, error)
}

// Runner triggers batch runs
type Runner interface {
	RunBatch(ctx context.Context, start, end time.Time, trigger domain.Trigger) (*domain.BatchRun, error)
	RerunBatch(ctx context.Context, runID string) (*domain.BatchRun, error)
}

// Server is the HTTP API server
type Server struct {
	store  Store
	runner Runner
	addr   string
	mux    *http.ServeMux
	sseHub *SSEHub
}

// NewServer creates a new API server
func NewServer(store Store, runner Runner, addr string) *Server {
	s := &Server{
		store:  store,
		runner: runner,
		addr:   addr,
		mux:    http.NewServeMux(),
		sseHub: NewSSEHub(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/status", s.statusHandler())
	s.mux.HandleFunc("/api/batch-runs", s.batchRunsHandler())
	s.mux.HandleFunc("/api/batch-runs/", s.batchRunHandler())
	s.mux.HandleFunc("/api/events", s.sseHandler())
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.sseHub.Run()
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler returns the server's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Broadcast sends an event to all SSE clients
func (s *Server) Broadcast(event SSEEvent) {
	s.sseHub.Broadcast(event)
}

// HandleArchiverEvent forwards run progress events to the SSE stream. Wired
// as the archiver service's event receiver.
func (s *Server) HandleArchiverEvent(event string, payload interface{}) {
	s.Broadcast(SSEEvent{Type: event, Data: payload})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
