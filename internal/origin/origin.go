// Package origin talks to the SPA shell origin. FetchShell retrieves the
// raw HTML document the renderer mutates; Passthrough serves the origin
// unmodified and is the universal fallback for every failure path.
package origin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"
)

// Client fetches and proxies the SPA origin.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
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

// New constructs a Client pointing at the SPA origin base URL.
func New(base string, timeout time.Duration, logger *slog.Logger, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, fmt.Errorf("origin base url is required")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid origin base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchShell retrieves the origin HTML document for the given request path.
// The call is bounded by the configured timeout; deadline exceeded behaves
// exactly like any other upstream failure.
func (c *Client) FetchShell(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("create shell request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch shell: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("origin returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read shell body: %w", err)
	}
	return string(body), nil
}

// Passthrough returns a reverse proxy serving the origin unmodified. The
// proxy reports failures through its error handler so callers can apply the
// terminal empty-200 fallback.
func (c *Client) Passthrough(onError func(w http.ResponseWriter, r *http.Request, err error)) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(c.baseURL)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if onError != nil {
			onError(w, r, err)
			return
		}
		if c.logger != nil {
			c.logger.Error("origin passthrough failed", "path", r.URL.Path, "error", err)
		}
		w.WriteHeader(http.StatusBadGateway)
	}
	return proxy
}
