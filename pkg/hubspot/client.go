// Package hubspot is a minimal HubSpot CRM v3 client covering contact search,
// creation, and partial property updates.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.hubapi.com"

// Client is the HubSpot CRM API client.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

// ClientOption defines a functional option for configuring the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL for the client (used by tests).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates a CRM API client authenticated with a private app access token.
func New(accessToken string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("access token is required")
	}

	c := &Client{
		accessToken: accessToken,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Contact is a CRM contact record. Properties holds the raw property map as
// stored by the CRM; ids are opaque strings.
type Contact struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  string            `json:"createdAt"`
}

func (c *Client) sendRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return &Error{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// SearchContactsByEmail returns every contact whose email property exactly
// equals the given value, most recently created first, capped at limit.
//
// API: POST /crm/v3/objects/contacts/search
func (c *Client) SearchContactsByEmail(ctx context.Context, email string, limit int) ([]Contact, error) {
	body := map[string]interface{}{
		"filterGroups": []map[string]interface{}{
			{
				"filters": []map[string]string{
					{"propertyName": "email", "operator": "EQ", "value": email},
				},
			},
		},
		"sorts": []map[string]string{
			{"propertyName": "createdate", "direction": "DESCENDING"},
		},
		"properties": []string{"email"},
		"limit":      limit,
	}

	var resp struct {
		Total   int       `json:"total"`
		Results []Contact `json:"results"`
	}
	if err := c.sendRequest(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// CreateContact creates a new contact with the given email.
//
// API: POST /crm/v3/objects/contacts
func (c *Client) CreateContact(ctx context.Context, email string) (*Contact, error) {
	body := map[string]interface{}{
		"properties": map[string]string{"email": email},
	}

	var contact Contact
	if err := c.sendRequest(ctx, http.MethodPost, "/crm/v3/objects/contacts", body, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// UpdateContactProperties applies a partial update to the named properties of
// one contact. Properties not present in the map are left untouched.
//
// API: PATCH /crm/v3/objects/contacts/{id}
func (c *Client) UpdateContactProperties(ctx context.Context, id string, properties map[string]string) error {
	body := map[string]interface{}{
		"properties": properties,
	}
	return c.sendRequest(ctx, http.MethodPatch, "/crm/v3/objects/contacts/"+id, body, nil)
}
