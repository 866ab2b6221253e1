package caseexport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hochfrequenz/case-archiver/internal/domain"
)

func TestHTTPClient_FetchPage(t *testing.T) {
	pageEnd := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var got pageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cases/updated" {
			t.Errorf("path = %q, want /cases/updated", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(pageResponse{
			Cases: []caseJSON{{
				ID:     "CASE-1",
				Status: "closed",
				Events: []eventJSON{{
					ID:   "ev-1",
					Type: "archive",
					Documents: []documentJSON{
						{ID: "doc-1", Name: "Decision", CategoryCode: "DEC"},
					},
				}},
			}},
			End: &pageEnd,
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	lower := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	upper := time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC)

	page, err := client.FetchPage(context.Background(), lower, upper)
	if err != nil {
		t.Fatal(err)
	}

	if !got.LowerExclusiveBound.Equal(lower) || !got.UpperInclusiveBound.Equal(upper) {
		t.Errorf("request bounds = (%v, %v), want (%v, %v)",
			got.LowerExclusiveBound, got.UpperInclusiveBound, lower, upper)
	}
	if page.End == nil || !page.End.Equal(pageEnd) {
		t.Errorf("page end = %v, want %v", page.End, pageEnd)
	}
	if len(page.Cases) != 1 {
		t.Fatalf("case count = %d, want 1", len(page.Cases))
	}

	c := page.Cases[0]
	if c.ID != "CASE-1" || !c.Closed() {
		t.Errorf("case = %+v, want closed CASE-1", c)
	}
	docs := c.ArchivableDocuments()
	if len(docs) != 1 || docs[0].ID != "doc-1" {
		t.Errorf("archivable documents = %+v, want doc-1", docs)
	}
}

func TestHTTPClient_FetchPage_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	if _, err := client.FetchPage(context.Background(), time.Now(), time.Now()); err == nil {
		t.Fatal("expected an error for a 502 response")
	}
}

func TestHTTPClient_FetchDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents/doc-1" {
			t.Errorf("path = %q, want /documents/doc-1", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]fileJSON{
			{Name: "decision", Extension: "pdf", Content: []byte("%PDF")},
			{Name: "appendix", Extension: "pdf", Content: []byte("%PDF")},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	files, err := client.FetchDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatal(err)
	}

	want := []domain.File{
		{Name: "decision", Extension: "pdf", Content: []byte("%PDF")},
		{Name: "appendix", Extension: "pdf", Content: []byte("%PDF")},
	}
	if len(files) != len(want) {
		t.Fatalf("file count = %d, want %d", len(files), len(want))
	}
	for i := range want {
		if files[i].Name != want[i].Name || files[i].Extension != want[i].Extension {
			t.Errorf("file[%d] = %+v, want %+v", i, files[i], want[i])
		}
	}
}

func TestHTTPClient_FetchDocument_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewHTTPClient(server.URL)
	if _, err := client.FetchDocument(context.Background(), "missing"); err == nil {
		t.Fatal("expected an error for a missing document")
	}
}
