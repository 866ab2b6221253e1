package domain

import "testing"

func TestCase_ArchivableDocuments(t *testing.T) {
	c := &Case{
		ID:     "BYGG-2024-0001",
		Status: CaseStatusClosed,
		Events: []CaseEvent{
			{Type: EventTypeArchive, Documents: []Document{
				{ID: "doc-1", Name: "Survey"},
				{ID: "", Name: "orphan event row"},
			}},
			{Type: "note", Documents: []Document{
				{ID: "doc-2", Name: "Internal note"},
			}},
			{Type: EventTypeArchive, Documents: []Document{
				{ID: "doc-3", Name: "Decision"},
			}},
		},
	}

	docs := c.ArchivableDocuments()
	if len(docs) != 2 {
		t.Fatalf("ArchivableDocuments count = %d, want 2", len(docs))
	}
	if docs[0].ID != "doc-1" || docs[1].ID != "doc-3" {
		t.Errorf("ArchivableDocuments = %q, %q, want doc-1, doc-3", docs[0].ID, docs[1].ID)
	}
}

func TestCase_Closed(t *testing.T) {
	if (&Case{Status: "open"}).Closed() {
		t.Error("open case reported as closed")
	}
	if !(&Case{Status: CaseStatusClosed}).Closed() {
		t.Error("closed case not reported as closed")
	}
}
