package domain

import "time"

// BatchRun records one archival run over a date window. It is created with
// StatusNotCompleted before any document work starts, so a crash mid-run
// leaves a durable marker that a rerun can pick up.
type BatchRun struct {
	ID        string
	Start     time.Time // calendar date, time part ignored
	End       time.Time // calendar date, time part ignored
	Trigger   Trigger
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ArchiveAttempt records the archival of a single document within a case.
// At most one attempt exists per (DocumentID, CaseID) across all runs.
// The attempt is persisted before the archive sink is called; a crash in
// between leaves it NOT_COMPLETED for the next rerun.
type ArchiveAttempt struct {
	ID           string
	DocumentID   string
	CaseID       string
	DocumentName string
	DocumentType string
	BatchRunID   string
	Status       Status
	ArchiveID    string
	ArchiveURL   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Completed reports whether the attempt has reached its terminal state.
func (a *ArchiveAttempt) Completed() bool {
	return a.Status == StatusCompleted
}
