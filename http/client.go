// Package http provides HTTP transport for docpkg: a download client shared
// by the network adapters and the remote-file source adapter.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/cache"
)

// DefaultTimeout is the default timeout for HTTP requests.
const DefaultTimeout = 60 * time.Second

// Client performs GET requests and cache downloads.
type Client struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *HostLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultTimeout (60s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRateLimit limits requests to rps per second per host.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = NewHostLimiter(rps)
	}
}

// NewClient creates a new Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout:   DefaultTimeout,
		userAgent: "docpkg",
	}
	for _, opt := range opts {
		opt(c)
	}

	c.client = &http.Client{
		Timeout: c.timeout,
	}

	return c
}

// Get returns the body of url. A 404 is reported as ENOTFOUND and any other
// non-2xx status as EINTERNAL.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// Download streams url into path. Nothing is written at path on failure.
func (c *Client) Download(ctx context.Context, url, path string) error {
	resp, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := cache.WriteFrom(path, resp.Body); err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, docpkg.Errorf(docpkg.EINVALID, "invalid URL %q: %v", url, err)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, req.URL.Host); err != nil {
			return nil, err
		}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		code := docpkg.EINTERNAL
		if resp.StatusCode == http.StatusNotFound {
			code = docpkg.ENOTFOUND
		}
		return nil, docpkg.Errorf(code, "HTTP %d for %s", resp.StatusCode, url)
	}
	return resp, nil
}
