// Package fiddlapi provides typed access to the Fiddl.art data API. The API
// server is an external collaborator; this client performs no retries. A
// failed call is either tolerated by the caller or reaches the route's
// fallback wrapper.
package fiddlapi

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

// Client provides typed access to the upstream API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, timeout time.Duration, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "https://api.fiddl.art"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

// Browse fetches the public browse listing.
func (c *Client) Browse(ctx context.Context, limit int) ([]BrowseRow, error) {
	if limit <= 0 {
		limit = 30
	}
	var rows []BrowseRow
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/media/browse", query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetModel looks up a model by name, optionally scoped to a custom model ID.
func (c *Client) GetModel(ctx context.Context, name, customModelID string) (*Model, error) {
	query := url.Values{"name": {name}}
	if customModelID != "" {
		query.Set("customModelId", customModelID)
	}
	var model Model
	if err := c.get(ctx, "/models/get", query, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

// ListBaseModels returns the platform's built-in models.
func (c *Client) ListBaseModels(ctx context.Context) ([]Model, error) {
	var models []Model
	if err := c.get(ctx, "/models/base", nil, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// ListPublicModels returns published custom models.
func (c *Client) ListPublicModels(ctx context.Context) ([]Model, error) {
	var models []Model
	if err := c.get(ctx, "/models/public", nil, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// ModelCreations returns recent media generated with a model.
func (c *Client) ModelCreations(ctx context.Context, name string, limit int) ([]BrowseRow, error) {
	if limit <= 0 {
		limit = 12
	}
	query := url.Values{"model": {name}, "limit": {strconv.Itoa(limit)}}
	var rows []BrowseRow
	if err := c.get(ctx, "/media/browse", query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetProfile looks up a public profile by username.
func (c *Client) GetProfile(ctx context.Context, username string) (*Profile, error) {
	var profile Profile
	query := url.Values{"username": {username}}
	if err := c.get(ctx, "/profiles/get", query, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileCreations returns recent public media by a creator.
func (c *Client) ProfileCreations(ctx context.Context, username string, limit int) ([]BrowseRow, error) {
	if limit <= 0 {
		limit = 12
	}
	query := url.Values{"username": {username}, "limit": {strconv.Itoa(limit)}}
	var rows []BrowseRow
	if err := c.get(ctx, "/media/browse", query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetCreateRequest fetches a single generation request by UUID.
func (c *Client) GetCreateRequest(ctx context.Context, id string) (*CreateRequest, error) {
	var request CreateRequest
	query := url.Values{"id": {id}}
	if err := c.get(ctx, "/requests/get", query, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

// RecentRequests returns the request feed used to build dynamic sitemaps.
func (c *Client) RecentRequests(ctx context.Context, mediaType string, limit int) ([]SitemapRequest, error) {
	if limit <= 0 {
		limit = 500
	}
	query := url.Values{"type": {mediaType}, "limit": {strconv.Itoa(limit)}}
	var requests []SitemapRequest
	if err := c.get(ctx, "/requests/recent", query, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
