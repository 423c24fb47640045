package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultTimeout = 15 * time.Second
	MinTimeout     = 5 * time.Second
	MaxTimeout     = 15 * time.Second

	maxErrorBody = 64 << 10
)

// TokenSource yields the bearer token attached to backend requests. An empty
// token sends the request anonymously.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StaticToken is a TokenSource for service credentials.
type StaticToken string

func (t StaticToken) Token(context.Context) string {
	return string(t)
}

// Client talks to the storefront REST backend. Every exported method decodes
// exactly one response shape and returns typed errors.
type Client struct {
	baseURL    string
	healthURL  string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

type Option func(*Client)

// WithHealthURL overrides the root URL used for health checks.
func WithHealthURL(u string) Option {
	return func(c *Client) {
		c.healthURL = strings.TrimRight(u, "/")
	}
}

func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource, logger *slog.Logger, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if tokens == nil {
		tokens = StaticToken("")
	}
	c := &Client{
		baseURL:    baseURL,
		healthURL:  strings.TrimSuffix(baseURL, "/api/v1"),
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient returns an instrumented http.Client with the timeout clamped
// to the supported range.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout < MinTimeout {
		timeout = MinTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.doURL(ctx, method, c.baseURL+path, path, body, out)
}

func (c *Client) doURL(ctx context.Context, method, url, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("backend request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newStatusError(method, path, resp, data)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w: %w", method, path, ErrMalformedResponse, err)
	}
	return nil
}

func malformed(endpoint, reason string) error {
	return fmt.Errorf("%s: %w: %s", endpoint, ErrMalformedResponse, reason)
}
