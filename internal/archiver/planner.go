package archiver

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hochfrequenz/case-archiver/internal/domain"
)

// planWindow computes the effective date window for a new run. Manual
// windows are used verbatim. Scheduled windows are checked against the
// latest completed run: a window it already covers is skipped, and a gap
// between it and the requested start is closed by moving the start back, so
// no closing date is ever left uncovered.
func (s *Service) planWindow(start, end time.Time, trigger domain.Trigger) (time.Time, time.Time, bool, error) {
	if trigger != domain.TriggerScheduled {
		return start, end, false, nil
	}

	latest, err := s.store.LatestCompletedRun()
	if err != nil {
		return start, end, false, fmt.Errorf("looking up latest completed run: %w", err)
	}
	if latest == nil {
		return start, end, false, nil
	}

	if !end.After(latest.End) {
		s.log.Info("window already covered by the latest completed run, skipping",
			zap.String("end", end.Format("2006-01-02")),
			zap.String("latest_end", latest.End.Format("2006-01-02")))
		return start, end, true, nil
	}

	dayAfterLatest := latest.End.AddDate(0, 0, 1)
	if start.After(dayAfterLatest) {
		s.log.Info("gap since the latest completed run, moving start back",
			zap.String("requested_start", start.Format("2006-01-02")),
			zap.String("start", dayAfterLatest.Format("2006-01-02")))
		start = dayAfterLatest
	}

	return start, end, false, nil
}
