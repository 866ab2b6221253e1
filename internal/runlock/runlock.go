// Package runlock serializes batch runs. Exactly one run may execute at a
// time: concurrent runs would race on attempt uniqueness and on the fetch
// bound, so a second caller is turned away instead of queued.
package runlock

import "golang.org/x/sync/semaphore"

// Guard is a single-flight lock around batch execution
type Guard struct {
	sem *semaphore.Weighted
}

// New creates a Guard admitting one run at a time
func New() *Guard {
	return &Guard{sem: semaphore.NewWeighted(1)}
}

// TryAcquire takes the guard without blocking. It returns false when a run
// already holds it.
func (g *Guard) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

// Release returns the guard. Must be called exactly once per successful
// TryAcquire, on completion or failure alike.
func (g *Guard) Release() {
	g.sem.Release(1)
}
