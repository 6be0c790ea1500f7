// Package gateway is a thin JSON-over-HTTP client for the REST services the
// admin backend talks to. Every request is bounded by a timeout, carries an
// optional bearer token and surfaces non-2xx replies as *APIError.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

const (
	DefaultTimeout   = 8 * time.Second
	defaultUserAgent = "cartela-admin/1.0"
	maxErrorBody     = 64 << 10
)

// TokenSource yields the bearer token attached to each request. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

type Options struct {
	BaseURL     string
	Timeout     time.Duration
	TokenSource TokenSource
	HTTPClient  *http.Client
	UserAgent   string
	Logger      *logger.Logger
}

type Client struct {
	baseURL    *url.URL
	timeout    time.Duration
	tokens     TokenSource
	httpClient *http.Client
	userAgent  string
	logg       *logger.Logger
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("gateway base url is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse gateway base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("gateway base url %q must be absolute", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:    base,
		timeout:    timeout,
		tokens:     opts.TokenSource,
		httpClient: httpClient,
		userAgent:  userAgent,
		logg:       opts.Logger,
	}, nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do issues one request. JSON replies decode into out; text replies fill a
// *string out; empty replies leave out untouched.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logRequest(ctx, method, path, resp.StatusCode, time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decodeBody(resp, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := *c.baseURL
	target.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("gateway build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("gateway token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) logRequest(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"gateway_method": method,
		"gateway_path":   path,
		"status":         status,
		"duration_ms":    elapsed.Milliseconds(),
	})
	c.logg.Debug(ctx, "gateway.request")
}

func decodeBody(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gateway read body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	switch mediaType(resp.Header.Get("Content-Type")) {
	case "json":
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("gateway decode json: %w", err)
		}
		return nil
	case "text":
		if s, ok := out.(*string); ok {
			*s = string(raw)
			return nil
		}
		return fmt.Errorf("gateway: text response needs *string, got %T", out)
	default:
		if s, ok := out.(*string); ok {
			*s = string(raw)
			return nil
		}
		return fmt.Errorf("gateway: unsupported content type %q", resp.Header.Get("Content-Type"))
	}
}

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	switch {
	case mt == "application/json" || strings.HasSuffix(mt, "+json"):
		return "json"
	case strings.HasPrefix(mt, "text/"):
		return "text"
	}
	return ""
}
