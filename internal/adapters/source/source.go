// Package source fetches raw dataset exports from a locator: an http(s)
// URL, a file:// URL or a plain filesystem path.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 32 << 20
	userAgent      = "scrollstats/1"
)

// Fetcher returns the raw bytes behind a locator.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, locator string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, locator string) ([]byte, error) {
	return f(ctx, locator)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http.Timeout = d
		}
	}
}

// Client fetches over HTTP or from the local filesystem depending on the
// locator scheme.
type Client struct {
	http *http.Client
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch implements Fetcher.
func (c *Client) Fetch(ctx context.Context, locator string) ([]byte, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, ErrNoLocator
	}
	u, err := url.Parse(locator)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 { // "C:\..." parses with scheme "c"
		return readFile(locator)
	}
	switch u.Scheme {
	case "http", "https":
		return c.get(ctx, locator)
	case "file":
		return readFile(u.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func (c *Client) get(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", redact(locator), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: %d from %s", ErrStatus, resp.StatusCode, redact(locator))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", redact(locator), err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, redact(locator))
	}
	return body, nil
}

func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return b, nil
}

// redact drops the query string, which for published sheets can carry keys.
func redact(locator string) string {
	u, err := url.Parse(locator)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
