package archiver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hochfrequenz/case-archiver/internal/domain"
)

// fallbackIncrement is how far the lower bound advances when the source
// makes no forward progress of its own. It bounds the number of iterations
// for a window of W hours at ceil(W) even against a source that only ever
// returns empty or stale pages.
const fallbackIncrement = time.Hour

// fetchWindow pages through the run's window. Pages are processed strictly
// in order: the next fetch only happens after every document of the current
// page has been handled, because dedup depends on this run's attempts being
// persisted before the same documents can show up again.
func (s *Service) fetchWindow(ctx context.Context, run *domain.BatchRun) error {
	lower, upper := windowBounds(run.Start, run.End, s.now())

	for {
		s.log.Info("fetching case page",
			zap.Time("lower_exclusive", lower),
			zap.Time("upper_inclusive", upper))

		page, err := s.source.FetchPage(ctx, lower, upper)
		if err != nil {
			return fmt.Errorf("fetching case page: %w", err)
		}
		if page.End != nil {
			s.log.Info("page covered", zap.Timep("page_start", page.Start), zap.Timep("page_end", page.End))
		}

		s.processPage(ctx, run, page.Cases)

		lower = advanceBound(lower, upper, page.End)
		if !lower.Before(upper) {
			return nil
		}
	}
}

// windowBounds converts the run's date window into the timestamp range to
// query. The upper bound is clamped to now so a window ending today never
// asks the source about the future.
func windowBounds(start, end, now time.Time) (time.Time, time.Time) {
	lower := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, now.Location())

	endOfDay := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, now.Location())
	if endOfDay.After(now) {
		return lower, now
	}
	return lower, endOfDay
}

// advanceBound moves the lower bound after a page. The source's own page
// end is used when it makes progress; otherwise the fixed increment keeps
// the loop terminating even when the source returns empty or stale pages.
// The returned bound is strictly greater than lower as long as lower is
// still before upper.
func advanceBound(lower, upper time.Time, pageEnd *time.Time) time.Time {
	if pageEnd == nil || !pageEnd.After(lower) {
		next := lower.Add(fallbackIncrement)
		if next.After(upper) {
			return upper
		}
		return next
	}
	if pageEnd.After(upper) {
		return upper
	}
	return *pageEnd
}
