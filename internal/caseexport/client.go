// Package caseexport talks to the case-management export service. The
// service pages by time range: it answers with the cases touched inside a
// requested window together with the sub-range it actually covered, which
// may be narrower than asked for. Retry and circuit breaking on these calls
// live in front of the service, not here.
package caseexport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hochfrequenz/case-archiver/internal/domain"
)

// Page is one bounded-time-range response from the case source. Start and
// End report the sub-range the source actually covered; either may be nil
// when the source cannot say.
type Page struct {
	Cases []domain.Case
	Start *time.Time
	End   *time.Time
}

// Client fetches cases and document payloads from the case source
type Client interface {
	// FetchPage returns the cases touched in (lower, upper]. The page may
	// be empty or cover a narrower range than requested.
	FetchPage(ctx context.Context, lower, upper time.Time) (*Page, error)
	// FetchDocument returns the file payloads registered under a document
	// id. A single id can resolve to several files.
	FetchDocument(ctx context.Context, documentID string) ([]domain.File, error)
}

// HTTPClient is the production Client talking JSON over HTTP
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for the export service at baseURL
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type pageRequest struct {
	LowerExclusiveBound time.Time `json:"lower_exclusive_bound"`
	UpperInclusiveBound time.Time `json:"upper_inclusive_bound"`
}

type pageResponse struct {
	Cases []caseJSON `json:"cases"`
	Start *time.Time `json:"page_start,omitempty"`
	End   *time.Time `json:"page_end,omitempty"`
}

type caseJSON struct {
	ID           string      `json:"id"`
	Type         string      `json:"type,omitempty"`
	Description  string      `json:"description,omitempty"`
	Status       string      `json:"status"`
	PropertyRef  string      `json:"property_ref,omitempty"`
	RegisteredAt *time.Time  `json:"registered_at,omitempty"`
	ArrivedAt    *time.Time  `json:"arrived_at,omitempty"`
	ClosedAt     *time.Time  `json:"closed_at,omitempty"`
	Events       []eventJSON `json:"events,omitempty"`
}

type eventJSON struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Documents []documentJSON `json:"documents,omitempty"`
}

type documentJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	CategoryCode string `json:"category_code,omitempty"`
}

type fileJSON struct {
	Name        string `json:"name"`
	Extension   string `json:"extension,omitempty"`
	Description string `json:"description,omitempty"`
	Content     []byte `json:"content"`
}

// FetchPage implements Client
func (c *HTTPClient) FetchPage(ctx context.Context, lower, upper time.Time) (*Page, error) {
	payload, err := json.Marshal(pageRequest{LowerExclusiveBound: lower, UpperInclusiveBound: upper})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cases/updated", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("case export returned %d", resp.StatusCode)
	}

	var body pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	page := &Page{Start: body.Start, End: body.End}
	for _, cj := range body.Cases {
		page.Cases = append(page.Cases, toCase(cj))
	}
	return page, nil
}

// FetchDocument implements Client
func (c *HTTPClient) FetchDocument(ctx context.Context, documentID string) ([]domain.File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/documents/"+documentID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("case export returned %d for document %s", resp.StatusCode, documentID)
	}

	var body []fileJSON
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	files := make([]domain.File, 0, len(body))
	for _, fj := range body {
		files = append(files, domain.File{
			Name:        fj.Name,
			Extension:   fj.Extension,
			Description: fj.Description,
			Content:     fj.Content,
		})
	}
	return files, nil
}

func toCase(cj caseJSON) domain.Case {
	c := domain.Case{
		ID:           cj.ID,
		Type:         cj.Type,
		Description:  cj.Description,
		Status:       cj.Status,
		PropertyRef:  cj.PropertyRef,
		RegisteredAt: cj.RegisteredAt,
		ArrivedAt:    cj.ArrivedAt,
		ClosedAt:     cj.ClosedAt,
	}
	for _, ej := range cj.Events {
		event := domain.CaseEvent{ID: ej.ID, Type: ej.Type}
		for _, dj := range ej.Documents {
			event.Documents = append(event.Documents, domain.Document{
				ID:           dj.ID,
				Name:         dj.Name,
				CategoryCode: dj.CategoryCode,
			})
		}
		c.Events = append(c.Events, event)
	}
	return c
}
