// Package fetch provides the retry-aware HTTP client every catalog adapter
// and the content resolver go through. Requests can be relayed via a content
// proxy gateway to reach upstreams directly unreachable from the caller.
package fetch

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultTimeout    = 15 * time.Second
	defaultBaseDelay  = 500 * time.Millisecond
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client wraps HTTP calls with bounded retries, linear backoff and a
// per-attempt timeout.
type Client struct {
	httpClient HTTPDoer
	proxyURL   string
	maxRetries int
	timeout    time.Duration
	baseDelay  time.Duration
}

// NewClient creates a Client with sensible defaults: 3 attempts, 15s
// per-attempt timeout, 500ms base backoff.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{},
		maxRetries: defaultMaxRetries,
		timeout:    defaultTimeout,
		baseDelay:  defaultBaseDelay,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithProxy routes every request through a content proxy gateway reached as
// GET {proxy}?url=<encoded target>. An empty string disables the proxy.
func WithProxy(proxyURL string) Option {
	return func(client *Client) {
		client.proxyURL = strings.TrimSuffix(proxyURL, "/")
	}
}

// WithRetries sets the total number of attempts for retryable failures.
func WithRetries(attempts int) Option {
	return func(client *Client) {
		if attempts > 0 {
			client.maxRetries = attempts
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		if d > 0 {
			client.timeout = d
		}
	}
}

// WithBaseDelay sets the base backoff delay between attempts.
func WithBaseDelay(d time.Duration) Option {
	return func(client *Client) {
		if d >= 0 {
			client.baseDelay = d
		}
	}
}

// requestURL rewrites target through the proxy gateway when one is configured.
func (c *Client) requestURL(target string) string {
	if c.proxyURL == "" {
		return target
	}
	return c.proxyURL + "?url=" + url.QueryEscape(target)
}

// backoffDelay returns the wait before the next attempt. Linear rather than
// fixed, to avoid hammering an upstream that is already struggling.
func (c *Client) backoffDelay(attempt int) time.Duration {
	return c.baseDelay * time.Duration(attempt)
}
