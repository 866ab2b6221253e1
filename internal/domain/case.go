package domain

import "time"

// Case is an administrative matter in the source system, identified by its
// case reference number. Cases reach CaseStatusClosed eventually; only then
// are their documents archived.
type Case struct {
	ID           string
	Type         string
	Description  string
	Status       string
	PropertyRef  string // reference into the property register, may be empty
	RegisteredAt *time.Time
	ArrivedAt    *time.Time
	ClosedAt     *time.Time
	Events       []CaseEvent
}

// Closed reports whether the case has reached its closed status.
func (c *Case) Closed() bool {
	return c.Status == CaseStatusClosed
}

// ArchivableDocuments returns the documents attached to the case's archival
// events. Documents without an id are skipped; the source occasionally
// emits event rows with no document behind them.
func (c *Case) ArchivableDocuments() []Document {
	var docs []Document
	for _, event := range c.Events {
		if event.Type != EventTypeArchive {
			continue
		}
		for _, doc := range event.Documents {
			if doc.ID == "" {
				continue
			}
			docs = append(docs, doc)
		}
	}
	return docs
}

// CaseEvent is a lifecycle event on a case. Events of EventTypeArchive carry
// the documents that are eligible for long-term archival.
type CaseEvent struct {
	ID        string
	Type      string
	Documents []Document
}

// Document is the source system's registration of a document on a case
// event. The file contents are fetched separately by document id.
type Document struct {
	ID           string
	Name         string
	CategoryCode string
}

// File is one payload returned for a document id. A single document id can
// resolve to several files; each one is delivered to the archive under the
// same attempt.
type File struct {
	Name        string
	Extension   string // without leading dot, may be empty
	Description string
	Content     []byte
}
