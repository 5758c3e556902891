// Package shopify is a minimal Shopify Admin REST client covering the
// customer and metafield reads this service performs.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultAPIVersion = "2024-10"

// Client talks to one shop's Admin REST API.
type Client struct {
	baseURL     string
	accessToken string
	apiVersion  string
	httpClient  *http.Client
}

// ClientOption defines a functional option for configuring the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the admin base URL (used by tests).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithAPIVersion selects the Admin API version.
func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates an Admin API client for the given shop domain
// (e.g. "example.myshopify.com").
func New(shopDomain, accessToken string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(shopDomain) == "" {
		return nil, fmt.Errorf("shop domain is required")
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("access token is required")
	}

	c := &Client{
		baseURL:     fmt.Sprintf("https://%s", strings.TrimSpace(shopDomain)),
		accessToken: accessToken,
		apiVersion:  defaultAPIVersion,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Customer is the subset of Shopify's customer resource this service reads.
type Customer struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Metafield is a namespaced key/value attribute on a customer record.
type Metafield struct {
	ID        int64  `json:"id"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s/admin/api/%s%s", c.baseURL, c.apiVersion, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Accept", "application/json")

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

// CustomerByID fetches a customer record by its numeric id.
//
// API: GET /customers/{id}.json
func (c *Client) CustomerByID(ctx context.Context, id int64) (*Customer, error) {
	var resp struct {
		Customer Customer `json:"customer"`
	}
	if err := c.get(ctx, fmt.Sprintf("/customers/%d.json", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Customer, nil
}

// SearchCustomerByEmail runs an exact-match email search and returns the first
// hit, or nil when no customer matches. The caller is expected to pass an
// already-lowercased email.
//
// API: GET /customers/search.json?query=email:"..."
func (c *Client) SearchCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	query := url.Values{}
	query.Set("query", fmt.Sprintf("email:%q", email))

	var resp struct {
		Customers []Customer `json:"customers"`
	}
	if err := c.get(ctx, "/customers/search.json", query, &resp); err != nil {
		return nil, err
	}
	if len(resp.Customers) == 0 {
		return nil, nil
	}
	return &resp.Customers[0], nil
}

// CustomerMetafield fetches one namespaced metafield from a customer and parses
// its JSON value into a generic map. A customer 404 and an absent metafield both
// surface as a not-found *Error so callers can trigger the stale-id fallback.
//
// API: GET /customers/{id}/metafields.json?namespace=...&key=...
func (c *Client) CustomerMetafield(ctx context.Context, customerID int64, namespace, key string) (map[string]interface{}, error) {
	query := url.Values{}
	query.Set("namespace", namespace)
	query.Set("key", key)

	var resp struct {
		Metafields []Metafield `json:"metafields"`
	}
	if err := c.get(ctx, fmt.Sprintf("/customers/%d/metafields.json", customerID), query, &resp); err != nil {
		return nil, err
	}
	if len(resp.Metafields) == 0 {
		return nil, &Error{
			StatusCode: http.StatusNotFound,
			Body:       fmt.Sprintf("metafield %s.%s not set for customer %s", namespace, key, strconv.FormatInt(customerID, 10)),
		}
	}

	raw := map[string]interface{}{}
	if err := json.Unmarshal([]byte(resp.Metafields[0].Value), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse metafield %s.%s value: %w", namespace, key, err)
	}
	return raw, nil
}
