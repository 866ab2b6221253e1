// Package archiver implements the incremental windowed batch archival
// engine: it plans the date window for a run, pages through the case export
// source with a forward-progress guarantee, archives each closed case's
// documents exactly once, and reconciles batch completion across runs.
package archiver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hochfrequenz/case-archiver/internal/archive"
	"github.com/hochfrequenz/case-archiver/internal/caseexport"
	"github.com/hochfrequenz/case-archiver/internal/domain"
	"github.com/hochfrequenz/case-archiver/internal/history"
	"github.com/hochfrequenz/case-archiver/internal/notify"
	"github.com/hochfrequenz/case-archiver/internal/property"
	"github.com/hochfrequenz/case-archiver/internal/runlock"
)

var (
	// ErrRunNotFound is returned when a rerun references an unknown batch run
	ErrRunNotFound = errors.New("batch run not found")
	// ErrRunCompleted is returned when a rerun references a completed batch run
	ErrRunCompleted = errors.New("batch run is already completed")
	// ErrRunInProgress is returned when another run holds the single-flight guard
	ErrRunInProgress = errors.New("another batch run is in progress")
)

// Options holds the service settings that are not collaborators
type Options struct {
	// ArchiveBaseURL is the public long-term archive search endpoint used
	// to derive the archive URL stored on completed attempts.
	ArchiveBaseURL string
	// GeoRecipient receives notifications about archived geotechnical
	// documents.
	GeoRecipient string
	// ManualHandlingRecipient receives notifications about documents the
	// archive rejected for their file format.
	ManualHandlingRecipient string
}

// EventFunc receives progress events for operator surfaces. Payload is the
// domain object the event refers to.
type EventFunc func(event string, payload interface{})

// Event names emitted during a run
const (
	EventRunStarted     = "run_started"
	EventRunFinished    = "run_finished"
	EventAttemptUpdated = "attempt_updated"
)

// Service runs archival batches. All external calls are blocking and
// sequential; a failure on one document never aborts the batch.
type Service struct {
	store      *history.Store
	source     caseexport.Client
	sink       archive.Client
	properties property.Client
	notifier   notify.Notifier
	guard      *runlock.Guard
	log        *zap.Logger
	opts       Options

	events EventFunc
	now    func() time.Time
}

// New creates an archival service
func New(store *history.Store, source caseexport.Client, sink archive.Client, properties property.Client,
	notifier notify.Notifier, guard *runlock.Guard, log *zap.Logger, opts Options) *Service {
	return &Service{
		store:      store,
		source:     source,
		sink:       sink,
		properties: properties,
		notifier:   notifier,
		guard:      guard,
		log:        log,
		opts:       opts,
		now:        time.Now,
	}
}

// SetEvents registers a progress event receiver
func (s *Service) SetEvents(fn EventFunc) {
	s.events = fn
}

// RunBatch executes a batch over the requested date window. For scheduled
// triggers the window is adjusted against the latest completed run; a
// redundant scheduled request returns (nil, nil) without creating a run.
func (s *Service) RunBatch(ctx context.Context, start, end time.Time, trigger domain.Trigger) (*domain.BatchRun, error) {
	if !s.guard.TryAcquire() {
		return nil, ErrRunInProgress
	}
	defer s.guard.Release()

	s.log.Info("batch requested",
		zap.String("trigger", string(trigger)),
		zap.String("start", start.Format("2006-01-02")),
		zap.String("end", end.Format("2006-01-02")))

	start, end, skip, err := s.planWindow(start, end, trigger)
	if err != nil {
		return nil, err
	}
	if skip {
		return nil, nil
	}

	// Persist the run before any fetch: a crash from here on leaves a
	// NOT_COMPLETED run for a later rerun to finish.
	run := &domain.BatchRun{
		ID:      uuid.NewString(),
		Start:   start,
		End:     end,
		Trigger: trigger,
		Status:  domain.StatusNotCompleted,
	}
	if err := s.store.CreateRun(run); err != nil {
		return nil, fmt.Errorf("creating batch run: %w", err)
	}
	s.emit(EventRunStarted, run)

	if err := s.archive(ctx, run); err != nil {
		return run, err
	}
	return run, nil
}

// RerunBatch re-executes an existing run over its stored window, unchanged.
// Attempt dedup makes this touch only documents that failed before or
// appeared since.
func (s *Service) RerunBatch(ctx context.Context, runID string) (*domain.BatchRun, error) {
	if !s.guard.TryAcquire() {
		return nil, ErrRunInProgress
	}
	defer s.guard.Release()

	run, err := s.store.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrRunNotFound
	}
	if run.Status == domain.StatusCompleted {
		return nil, ErrRunCompleted
	}

	s.log.Info("rerunning batch",
		zap.String("run", run.ID),
		zap.String("start", run.Start.Format("2006-01-02")),
		zap.String("end", run.End.Format("2006-01-02")))
	s.emit(EventRunStarted, run)

	if err := s.archive(ctx, run); err != nil {
		return run, err
	}
	return run, nil
}

// archive drives one run to the end of its window and reconciles status.
// A page fetch failure aborts here and leaves the run NOT_COMPLETED; it is
// recovered by rerun, not retried in place.
func (s *Service) archive(ctx context.Context, run *domain.BatchRun) error {
	if err := s.fetchWindow(ctx, run); err != nil {
		return err
	}
	if err := s.reconcileRun(run); err != nil {
		return err
	}
	return s.sweepHistoricalRuns()
}

func (s *Service) archiveURL(archiveID string) string {
	return s.opts.ArchiveBaseURL + "/search?id=" + url.QueryEscape(archiveID)
}

func (s *Service) emit(event string, payload interface{}) {
	if s.events != nil {
		s.events(event, payload)
	}
}
