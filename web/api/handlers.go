package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hochfrequenz/case-archiver/internal/archiver"
	"github.com/hochfrequenz/case-archiver/internal/domain"
	"github.com/hochfrequenz/case-archiver/internal/history"
)

const dateLayout = "2006-01-02"

// RunResponse is the API response for a batch run
type RunResponse struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Trigger   string `json:"trigger"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AttemptResponse is the API response for an archive attempt
type AttemptResponse struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id"`
	CaseID       string `json:"case_id"`
	DocumentName string `json:"document_name,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	BatchRunID   string `json:"batch_run_id"`
	Status       string `json:"status"`
	ArchiveID    string `json:"archive_id,omitempty"`
	ArchiveURL   string `json:"archive_url,omitempty"`
}

// StatusResponse is the API response for overall status
type StatusResponse struct {
	Total        int          `json:"total"`
	NotCompleted int          `json:"not_completed"`
	Completed    int          `json:"completed"`
	LatestRun    *RunResponse `json:"latest_run,omitempty"`
}

// RunRequest is the body of a manual batch trigger
type RunRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func runToResponse(run *domain.BatchRun) RunResponse {
	return RunResponse{
		ID:        run.ID,
		StartDate: run.Start.Format(dateLayout),
		EndDate:   run.End.Format(dateLayout),
		Trigger:   string(run.Trigger),
		Status:    string(run.Status),
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
		UpdatedAt: run.UpdatedAt.Format(time.RFC3339),
	}
}

func attemptToResponse(a *domain.ArchiveAttempt) AttemptResponse {
	return AttemptResponse{
		ID:           a.ID,
		DocumentID:   a.DocumentID,
		CaseID:       a.CaseID,
		DocumentName: a.DocumentName,
		DocumentType: a.DocumentType,
		BatchRunID:   a.BatchRunID,
		Status:       string(a.Status),
		ArchiveID:    a.ArchiveID,
		ArchiveURL:   a.ArchiveURL,
	}
}

func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		runs, err := s.store.ListRuns(history.ListOptions{})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		var status StatusResponse
		status.Total = len(runs)
		for _, run := range runs {
			switch run.Status {
			case domain.StatusNotCompleted:
				status.NotCompleted++
			case domain.StatusCompleted:
				status.Completed++
			}
		}
		if len(runs) > 0 {
			latest := runToResponse(runs[0])
			status.LatestRun = &latest
		}

		writeJSON(w, status)
	}
}

func (s *Server) batchRunsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.listRuns(w, r)
		case http.MethodPost:
			s.triggerRun(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	var opts history.ListOptions
	if status := r.URL.Query().Get("status"); status != "" {
		opts.Status = domain.Status(status)
	}

	runs, err := s.store.ListRuns(opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	responses := make([]RunResponse, len(runs))
	for i, run := range runs {
		responses[i] = runToResponse(run)
	}
	writeJSON(w, responses)
}

func (s *Server) triggerRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be a YYYY-MM-DD date")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be a YYYY-MM-DD date")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end_date must not precede start_date")
		return
	}

	run, err := s.runner.RunBatch(r.Context(), start, end, domain.TriggerManual)
	if errors.Is(err, archiver.ErrRunInProgress) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil && run == nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// A run that failed partway still exists; report it with its status
	writeJSONStatus(w, http.StatusCreated, runToResponse(run))
}

// batchRunHandler dispatches /api/batch-runs/{id}[...] paths
func (s *Server) batchRunHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/batch-runs/")
		if path == "" {
			writeError(w, http.StatusBadRequest, "run id required")
			return
		}

		switch {
		case strings.HasSuffix(path, "/attempts"):
			s.listAttempts(w, r, strings.TrimSuffix(path, "/attempts"))
		case strings.HasSuffix(path, "/rerun"):
			s.rerun(w, r, strings.TrimSuffix(path, "/rerun"))
		default:
			s.getRun(w, r, path)
		}
	}
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request, runID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	run, err := s.store.GetRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "batch run not found")
		return
	}
	writeJSON(w, runToResponse(run))
}

func (s *Server) listAttempts(w http.ResponseWriter, r *http.Request, runID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	run, err := s.store.GetRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "batch run not found")
		return
	}

	attempts, err := s.store.AttemptsByRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	responses := make([]AttemptResponse, len(attempts))
	for i, a := range attempts {
		responses[i] = attemptToResponse(a)
	}
	writeJSON(w, responses)
}

func (s *Server) rerun(w http.ResponseWriter, r *http.Request, runID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	run, err := s.runner.RerunBatch(r.Context(), runID)
	switch {
	case errors.Is(err, archiver.ErrRunNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, archiver.ErrRunCompleted), errors.Is(err, archiver.ErrRunInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil && run == nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, runToResponse(run))
}
