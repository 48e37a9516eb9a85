package fetch

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/skyrrd/alexandria/internal/errors"
)

// StatusError represents a non-retryable HTTP error status (4xx).
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s returned status %d", e.URL, e.Code)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return stdErrors.As(err, &statusErr) && statusErr.Code == code
}

// Get performs a GET with retries and returns the response body. Retries
// apply only to 5xx responses and transport failures; a 4xx fails
// immediately with a StatusError. Exhausted retries yield a NetworkError
// carrying the URL and the last status or transport error.
func (c *Client) Get(ctx context.Context, target string) ([]byte, error) {
	reqURL := c.requestURL(target)

	var lastStatus int
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(c.backoffDelay(attempt - 1)):
			case <-ctx.Done():
				return nil, errors.NewNetworkError(target, lastStatus, ctx.Err())
			}
		}

		body, status, err := c.doAttempt(ctx, reqURL)
		switch {
		case err != nil:
			// Transport-level failure (timeout, DNS, reset): retryable.
			lastStatus, lastErr = 0, err
		case status >= 500:
			lastStatus, lastErr = status, nil
		case status >= 400:
			return nil, &StatusError{URL: target, Code: status}
		default:
			return body, nil
		}
	}

	return nil, errors.NewNetworkError(target, lastStatus, lastErr)
}

// GetJSON performs a GET and decodes the JSON response into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

// GetText performs a GET and returns the response body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) doAttempt(ctx context.Context, reqURL string) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a bounded amount so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}
