package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hochfrequenz/case-archiver/internal/archiver"
	"github.com/hochfrequenz/case-archiver/internal/domain"
	"github.com/hochfrequenz/case-archiver/internal/history"
)

type mockStore struct {
	runs     []*domain.BatchRun
	attempts map[string][]*domain.ArchiveAttempt
}

func (m *mockStore) ListRuns(opts history.ListOptions) ([]*domain.BatchRun, error) {
	if opts.Status == "" {
		return m.runs, nil
	}
	var filtered []*domain.BatchRun
	for _, run := range m.runs {
		if run.Status == opts.Status {
			filtered = append(filtered, run)
		}
	}
	return filtered, nil
}

func (m *mockStore) GetRun(id string) (*domain.BatchRun, error) {
	for _, run := range m.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, nil
}

func (m *mockStore) AttemptsByRun(runID string) ([]*domain.ArchiveAttempt, error) {
	return m.attempts[runID], nil
}

type mockRunner struct {
	run      *domain.BatchRun
	runErr   error
	rerunErr error
}

func (m *mockRunner) RunBatch(ctx context.Context, start, end time.Time, trigger domain.Trigger) (*domain.BatchRun, error) {
	if m.runErr != nil {
		return nil, m.runErr
	}
	return &domain.BatchRun{ID: "new-run", Start: start, End: end, Trigger: trigger, Status: domain.StatusCompleted}, nil
}

func (m *mockRunner) RerunBatch(ctx context.Context, runID string) (*domain.BatchRun, error) {
	if m.rerunErr != nil {
		return nil, m.rerunErr
	}
	return m.run, nil
}

func testRun(id string, status domain.Status) *domain.BatchRun {
	return &domain.BatchRun{
		ID:      id,
		Start:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC),
		Trigger: domain.TriggerScheduled,
		Status:  status,
	}
}

func TestStatusHandler(t *testing.T) {
	store := &mockStore{runs: []*domain.BatchRun{
		testRun("a", domain.StatusCompleted),
		testRun("b", domain.StatusNotCompleted),
		testRun("c", domain.StatusCompleted),
	}}

	server := NewServer(store, &mockRunner{}, ":8080")

	req := httptest.NewRequest("GET", "/api/status", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var status StatusResponse
	json.NewDecoder(w.Body).Decode(&status)

	if status.Total != 3 {
		t.Errorf("Total = %d, want 3", status.Total)
	}
	if status.Completed != 2 {
		t.Errorf("Completed = %d, want 2", status.Completed)
	}
	if status.NotCompleted != 1 {
		t.Errorf("NotCompleted = %d, want 1", status.NotCompleted)
	}
	if status.LatestRun == nil || status.LatestRun.ID != "a" {
		t.Errorf("LatestRun = %+v, want run a", status.LatestRun)
	}
}

func TestListRunsHandler_StatusFilter(t *testing.T) {
	store := &mockStore{runs: []*domain.BatchRun{
		testRun("a", domain.StatusCompleted),
		testRun("b", domain.StatusNotCompleted),
	}}

	server := NewServer(store, &mockRunner{}, ":8080")

	req := httptest.NewRequest("GET", "/api/batch-runs?status=not_completed", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	var runs []RunResponse
	json.NewDecoder(w.Body).Decode(&runs)

	if len(runs) != 1 {
		t.Fatalf("Run count = %d, want 1", len(runs))
	}
	if runs[0].ID != "b" {
		t.Errorf("ID = %q, want b", runs[0].ID)
	}
}

func TestGetRunHandler(t *testing.T) {
	store := &mockStore{runs: []*domain.BatchRun{testRun("a", domain.StatusCompleted)}}
	server := NewServer(store, &mockRunner{}, ":8080")

	req := httptest.NewRequest("GET", "/api/batch-runs/a", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var run RunResponse
	json.NewDecoder(w.Body).Decode(&run)
	if run.ID != "a" || run.StartDate != "2024-05-01" || run.EndDate != "2024-05-07" {
		t.Errorf("run = %+v, want id a over 2024-05-01..2024-05-07", run)
	}

	req = httptest.NewRequest("GET", "/api/batch-runs/missing", nil)
	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404 for unknown run", w.Code)
	}
}

func TestListAttemptsHandler(t *testing.T) {
	store := &mockStore{
		runs: []*domain.BatchRun{testRun("a", domain.StatusNotCompleted)},
		attempts: map[string][]*domain.ArchiveAttempt{
			"a": {
				{ID: "att-1", DocumentID: "doc-1", CaseID: "CASE-1", BatchRunID: "a", Status: domain.StatusCompleted},
				{ID: "att-2", DocumentID: "doc-2", CaseID: "CASE-1", BatchRunID: "a", Status: domain.StatusNotCompleted},
			},
		},
	}
	server := NewServer(store, &mockRunner{}, ":8080")

	req := httptest.NewRequest("GET", "/api/batch-runs/a/attempts", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var attempts []AttemptResponse
	json.NewDecoder(w.Body).Decode(&attempts)
	if len(attempts) != 2 {
		t.Errorf("Attempt count = %d, want 2", len(attempts))
	}
}

func TestTriggerRunHandler(t *testing.T) {
	server := NewServer(&mockStore{}, &mockRunner{}, ":8080")

	body := strings.NewReader(`{"start_date":"2024-05-01","end_date":"2024-05-07"}`)
	req := httptest.NewRequest("POST", "/api/batch-runs", body)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want 201", w.Code)
	}

	var run RunResponse
	json.NewDecoder(w.Body).Decode(&run)
	if run.Trigger != string(domain.TriggerManual) {
		t.Errorf("Trigger = %q, want manual", run.Trigger)
	}
}

func TestTriggerRunHandler_Validation(t *testing.T) {
	server := NewServer(&mockStore{}, &mockRunner{}, ":8080")

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `not json`},
		{"bad start date", `{"start_date":"01/05/2024","end_date":"2024-05-07"}`},
		{"end before start", `{"start_date":"2024-05-07","end_date":"2024-05-01"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/batch-runs", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			server.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want 400", w.Code)
			}
		})
	}
}

func TestTriggerRunHandler_Busy(t *testing.T) {
	server := NewServer(&mockStore{}, &mockRunner{runErr: archiver.ErrRunInProgress}, ":8080")

	body := strings.NewReader(`{"start_date":"2024-05-01","end_date":"2024-05-07"}`)
	req := httptest.NewRequest("POST", "/api/batch-runs", body)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Status = %d, want 409", w.Code)
	}
}

func TestRerunHandler(t *testing.T) {
	tests := []struct {
		name     string
		runner   *mockRunner
		wantCode int
	}{
		{"success", &mockRunner{run: testRun("a", domain.StatusCompleted)}, http.StatusOK},
		{"unknown run", &mockRunner{rerunErr: archiver.ErrRunNotFound}, http.StatusNotFound},
		{"already completed", &mockRunner{rerunErr: archiver.ErrRunCompleted}, http.StatusConflict},
		{"busy", &mockRunner{rerunErr: archiver.ErrRunInProgress}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer(&mockStore{}, tt.runner, ":8080")

			req := httptest.NewRequest("POST", "/api/batch-runs/a/rerun", nil)
			w := httptest.NewRecorder()
			server.Handler().ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}
