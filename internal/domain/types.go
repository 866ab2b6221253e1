package domain

// Status represents the archival state of a batch run or archive attempt
type Status string

const (
	StatusNotCompleted Status = "not_completed"
	StatusCompleted    Status = "completed"
)

// Trigger identifies what started a batch run
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// CaseStatusClosed is the source-system status that makes a case eligible
// for archival.
const CaseStatusClosed = "closed"

// EventTypeArchive is the case event type whose documents are archived.
const EventTypeArchive = "archive"
