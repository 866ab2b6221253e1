package archiver

import (
	"go.uber.org/zap"

	"github.com/hochfrequenz/case-archiver/internal/domain"
	"github.com/hochfrequenz/case-archiver/internal/history"
)

// reconcileRun recomputes the run's status from its attempts. The
// transition is one-way: a run is marked COMPLETED once every attempt is,
// and never goes back.
func (s *Service) reconcileRun(run *domain.BatchRun) error {
	attempts, err := s.store.AttemptsByRun(run.ID)
	if err != nil {
		return err
	}

	if allCompleted(attempts) {
		if err := s.store.UpdateRunStatus(run.ID, domain.StatusCompleted); err != nil {
			return err
		}
		run.Status = domain.StatusCompleted
	}

	s.log.Info("batch finished",
		zap.String("run", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int("attempts", len(attempts)))
	s.emit(EventRunFinished, run)
	return nil
}

// sweepHistoricalRuns re-marks old NOT_COMPLETED runs whose attempts have
// all completed since, which happens when a later rerun superseded or
// retried their failed attempts.
func (s *Service) sweepHistoricalRuns() error {
	runs, err := s.store.ListRuns(history.ListOptions{Status: domain.StatusNotCompleted})
	if err != nil {
		return err
	}

	for _, run := range runs {
		attempts, err := s.store.AttemptsByRun(run.ID)
		if err != nil {
			return err
		}
		if !allCompleted(attempts) {
			continue
		}
		if err := s.store.UpdateRunStatus(run.ID, domain.StatusCompleted); err != nil {
			return err
		}
		s.log.Info("historical batch is now completed", zap.String("run", run.ID))
	}
	return nil
}

// allCompleted is vacuously true for an empty attempt list: a run that
// found nothing to archive has nothing left to do.
func allCompleted(attempts []*domain.ArchiveAttempt) bool {
	for _, attempt := range attempts {
		if !attempt.Completed() {
			return false
		}
	}
	return true
}
