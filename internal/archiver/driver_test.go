package archiver

import (
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWindowBounds(t *testing.T) {
	now := ts("2024-05-10 14:30:00")

	// Window entirely in the past: full days
	lower, upper := windowBounds(ts("2024-05-01 00:00:00"), ts("2024-05-07 00:00:00"), now)
	if !lower.Equal(ts("2024-05-01 00:00:00")) {
		t.Errorf("lower = %v, want start of day", lower)
	}
	if !upper.Equal(ts("2024-05-07 23:59:59")) {
		t.Errorf("upper = %v, want end of day", upper)
	}

	// Window ending today is clamped to now: never query the future
	_, upper = windowBounds(ts("2024-05-08 00:00:00"), ts("2024-05-10 00:00:00"), now)
	if !upper.Equal(now) {
		t.Errorf("upper = %v, want now (%v)", upper, now)
	}
}

func TestAdvanceBound(t *testing.T) {
	lower := ts("2024-05-01 00:00:00")
	upper := ts("2024-05-01 23:59:59")

	tests := []struct {
		name    string
		pageEnd *time.Time
		want    time.Time
	}{
		{"page end advances", timePtr(ts("2024-05-01 06:00:00")), ts("2024-05-01 06:00:00")},
		{"page end beyond upper is clamped", timePtr(ts("2024-05-02 08:00:00")), upper},
		{"absent page end falls back one hour", nil, ts("2024-05-01 01:00:00")},
		{"stale page end falls back one hour", timePtr(lower), ts("2024-05-01 01:00:00")},
		{"page end before lower falls back one hour", timePtr(ts("2024-04-30 12:00:00")), ts("2024-05-01 01:00:00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := advanceBound(lower, upper, tt.pageEnd)
			if !got.Equal(tt.want) {
				t.Errorf("advanceBound = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdvanceBound_FallbackClampedToUpper(t *testing.T) {
	lower := ts("2024-05-01 23:30:00")
	upper := ts("2024-05-01 23:59:59")

	got := advanceBound(lower, upper, nil)
	if !got.Equal(upper) {
		t.Errorf("advanceBound = %v, want clamp to upper %v", got, upper)
	}
}

// The loop must make strict forward progress and terminate within a bounded
// number of iterations even against a source that never reports a page end.
func TestAdvanceBound_StrictProgressAndTermination(t *testing.T) {
	lower := ts("2024-05-01 00:00:00")
	upper := ts("2024-05-03 23:59:59")

	maxIterations := int(upper.Sub(lower)/fallbackIncrement) + 1
	iterations := 0
	for lower.Before(upper) {
		next := advanceBound(lower, upper, nil)
		if !next.After(lower) {
			t.Fatalf("bound did not advance: %v -> %v", lower, next)
		}
		lower = next

		iterations++
		if iterations > maxIterations {
			t.Fatalf("loop exceeded %d iterations", maxIterations)
		}
	}
}

func timePtr(t time.Time) *time.Time { return &t }
