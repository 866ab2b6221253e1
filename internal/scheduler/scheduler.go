// Package scheduler triggers batch runs on a cron schedule. Each firing
// requests the rolling window of the past seven days through yesterday; the
// window planner inside the runner shrinks or skips it against the run
// history.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hochfrequenz/case-archiver/internal/archiver"
	"github.com/hochfrequenz/case-archiver/internal/domain"
)

// lookBackDays is how far the scheduled window reaches back. Wide enough to
// re-cover days whose runs failed, cheap because completed documents are
// deduplicated.
const lookBackDays = 7

// Runner executes a batch over a date window
type Runner interface {
	RunBatch(ctx context.Context, start, end time.Time, trigger domain.Trigger) (*domain.BatchRun, error)
}

// Scheduler fires scheduled batch runs
type Scheduler struct {
	runner   Runner
	schedule cron.Schedule
	log      *zap.Logger

	mu       sync.Mutex
	lastRun  time.Time
	stopChan chan struct{}
	now      func() time.Time
}

// ParseCron parses a standard five-field cron expression
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// New creates a scheduler firing the runner per the cron expression
func New(runner Runner, expr string, log *zap.Logger) (*Scheduler, error) {
	schedule, err := ParseCron(expr)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		runner:   runner,
		schedule: schedule,
		log:      log,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}, nil
}

// NextRun returns the next time the schedule fires
func (s *Scheduler) NextRun() time.Time {
	return s.schedule.Next(s.now())
}

// Start runs the scheduler loop until Stop is called or the context ends
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Time("next_run", s.NextRun()))

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			if s.due() {
				s.runOnce(ctx)
			}
		}
	}
}

// Stop stops the scheduler loop
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// due reports whether the schedule has fired since the last run
func (s *Scheduler) due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	lastRun := s.lastRun
	if lastRun.IsZero() {
		lastRun = s.now().Add(-24 * time.Hour)
	}
	return s.now().After(s.schedule.Next(lastRun))
}

// runOnce fires one scheduled batch over the rolling window
func (s *Scheduler) runOnce(ctx context.Context) {
	s.mu.Lock()
	s.lastRun = s.now()
	s.mu.Unlock()

	start, end := s.window()
	run, err := s.runner.RunBatch(ctx, start, end, domain.TriggerScheduled)
	switch {
	case errors.Is(err, archiver.ErrRunInProgress):
		s.log.Warn("scheduled batch skipped, another run is in progress")
	case err != nil:
		s.log.Error("scheduled batch failed", zap.Error(err))
	case run == nil:
		s.log.Info("scheduled window already covered, nothing to do")
	default:
		s.log.Info("scheduled batch finished",
			zap.String("run", run.ID),
			zap.String("status", string(run.Status)))
	}
}

// window returns the scheduled date window: seven days back through yesterday
func (s *Scheduler) window() (time.Time, time.Time) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, -lookBackDays), today.AddDate(0, 0, -1)
}
