// Package property looks up property register entries. The lookup only
// enriches notification content; a missing entry is not an error.
package property

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Property is a property register entry
type Property struct {
	Designation    string `json:"designation"`
	Municipality   string `json:"municipality,omitempty"`
	District       string `json:"district,omitempty"`
	ObjectIdentity string `json:"object_identity,omitempty"`
}

// FullDesignation returns the designation prefixed with the municipality,
// the form the land registry expects in notifications.
func (p *Property) FullDesignation() string {
	if p.Municipality == "" {
		return p.Designation
	}
	return p.Municipality + " " + p.Designation
}

// Client resolves property references from the register
type Client interface {
	// ByReference returns the property for a reference, or nil when the
	// register has no entry for it.
	ByReference(ctx context.Context, ref string) (*Property, error)
}

// HTTPClient is the production Client talking JSON over HTTP
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for the property register at baseURL
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ByReference implements Client
func (c *HTTPClient) ByReference(ctx context.Context, ref string) (*Property, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/properties/"+ref, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("property register returned %d", resp.StatusCode)
	}

	var property Property
	if err := json.NewDecoder(resp.Body).Decode(&property); err != nil {
		return nil, err
	}
	return &property, nil
}
