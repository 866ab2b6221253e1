// Package archive talks to the long-term archive sink. The only failure
// detail the caller inspects is whether a rejection was caused by the file's
// extension or format; everything else is an opaque, retryable-by-rerun
// failure.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Attachment is the file payload delivered to the archive
type Attachment struct {
	Name      string `json:"name"`
	Extension string `json:"extension"` // with leading dot, lowercase
	Content   []byte `json:"content"`
}

// Metadata describes the archived document for the archive's registry
type Metadata struct {
	CaseID              string   `json:"case_id"`
	CaseType            string   `json:"case_type,omitempty"`
	CaseDescription     string   `json:"case_description,omitempty"`
	CaseStatus          string   `json:"case_status"`
	CaseRegisteredAt    string   `json:"case_registered_at,omitempty"`
	CaseClosedAt        string   `json:"case_closed_at,omitempty"`
	ArchiveClass        string   `json:"archive_class,omitempty"`
	Note                string   `json:"note,omitempty"`
	Producer            Producer `json:"producer"`
	DocumentID          string   `json:"document_id"`
	DocumentTitle       string   `json:"document_title"`
	DocumentType        string   `json:"document_type,omitempty"`
	DocumentCreatedAt   string   `json:"document_created_at,omitempty"`
	DocumentDescription string   `json:"document_description,omitempty"`
	Classification      string   `json:"classification,omitempty"`
	AttachmentLink      string   `json:"attachment_link,omitempty"`
}

// Producer identifies the authority that produced the record, possibly
// nested (municipality -> committee active when the case arrived).
type Producer struct {
	Name       string    `json:"name"`
	ActiveFrom string    `json:"active_from,omitempty"`
	ActiveTo   string    `json:"active_to,omitempty"`
	Unit       *Producer `json:"unit,omitempty"`
}

// Client stores documents in the long-term archive
type Client interface {
	// Store delivers one attachment with its metadata and returns the
	// archive's identifier for the stored record.
	Store(ctx context.Context, attachment Attachment, metadata Metadata) (string, error)
}

// Error is a rejection from the archive sink
type Error struct {
	StatusCode int
	Reason     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("archive returned %d: %s", e.StatusCode, e.Reason)
}

// IsFormatError reports whether the sink rejected the document because of an
// invalid or unsupported file extension or format. These documents will
// never succeed on rerun and need manual handling.
func IsFormatError(err error) bool {
	var archiveErr *Error
	if !errors.As(err, &archiveErr) {
		return false
	}
	reason := strings.ToLower(archiveErr.Reason)
	return strings.Contains(reason, "extension must be valid") || strings.Contains(reason, "file format")
}

// HTTPClient is the production Client talking JSON over HTTP
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for the archive service at baseURL
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type storeRequest struct {
	Attachment Attachment `json:"attachment"`
	Metadata   Metadata   `json:"metadata"`
}

type storeResponse struct {
	ArchiveID string `json:"archive_id"`
}

// Store implements Client
func (c *HTTPClient) Store(ctx context.Context, attachment Attachment, metadata Metadata) (string, error) {
	payload, err := json.Marshal(storeRequest{Attachment: attachment, Metadata: metadata})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/archive", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &Error{StatusCode: resp.StatusCode, Reason: string(body)}
	}

	var body storeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.ArchiveID == "" {
		return "", &Error{StatusCode: resp.StatusCode, Reason: "response carried no archive id"}
	}
	return body.ArchiveID, nil
}
