// Package wb talks to the Wildberries catalog: JSON search and card detail
// endpoints plus the rendered search page.
package wb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/wbparse/backend/internal/domain"
	"github.com/wbparse/backend/internal/infrastructure/session"
	"github.com/wbparse/backend/internal/metrics"
)

const (
	acceptJSON = "application/json, text/plain, */*"
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	referer    = "https://www.wildberries.ru/"

	// maxBodyBytes caps any single response we are willing to buffer.
	maxBodyBytes = 32 << 20
)

// Options configures a Client.
type Options struct {
	Timeout time.Duration
	// RequestsPerSecond is a hard ceiling across all sources; 0 disables it.
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// Client handles communication with the catalog hosts using one shared
// identity.
type Client struct {
	httpClient  *http.Client
	identity    *session.Identity
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a catalog client bound to identity.
func NewClient(identity *session.Identity, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     identity.Jar,
		},
		identity:    identity,
		rateLimiter: rate.NewLimiter(limit, 1),
		logger:      logger,
	}
}

// getJSON performs a GET and returns the raw body of a 2xx response.
func (c *Client) getJSON(ctx context.Context, source, endpoint string, params url.Values) ([]byte, error) {
	resp, err := c.do(ctx, source, endpoint, params, c.identity.Header(acceptJSON))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", source, err)
	}
	return body, nil
}

// getHTML performs a GET with browser-like headers and returns the body
// decoded to UTF-8 according to the response charset.
func (c *Client) getHTML(ctx context.Context, source, endpoint string, params url.Values) (string, error) {
	header := c.identity.Header(acceptHTML)
	header.Set("Referer", referer)

	resp, err := c.do(ctx, source, endpoint, params, header)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	reader, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%s: detect charset: %w", source, err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", source, err)
	}
	return string(body), nil
}

// do executes a GET request. Non-2xx responses are closed and returned as
// *domain.StatusError.
func (c *Client) do(ctx context.Context, source, endpoint string, params url.Values, header http.Header) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := endpoint
	if len(params) > 0 {
		reqURL = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = header
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveRequest(source, 0, time.Since(start))
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceFailure, source, err)
	}
	metrics.ObserveRequest(source, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
		c.logger.Debug("source returned error status",
			slog.String("source", source),
			slog.Int("status", resp.StatusCode))
		return nil, &domain.StatusError{Source: source, Code: resp.StatusCode}
	}
	return resp, nil
}

// sourceName labels an endpoint for logs and metrics.
func sourceName(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host + u.Path
}
