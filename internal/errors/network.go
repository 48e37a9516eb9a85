package errors

import (
	stdErrors "errors"
	"fmt"
)

// NetworkError represents a request that failed after exhausting all retries.
// It carries the URL and the last observed failure so callers can decide
// whether to skip the source or surface the error.
type NetworkError struct {
	URL        string
	StatusCode int   // last HTTP status, 0 if the failure was transport-level
	Err        error // last transport error, nil if the failure was an HTTP status
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a NetworkError for the given URL and last failure.
func NewNetworkError(url string, statusCode int, err error) *NetworkError {
	return &NetworkError{URL: url, StatusCode: statusCode, Err: err}
}

// IsNetworkError reports whether err is a NetworkError (even when wrapped).
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return stdErrors.As(err, &netErr)
}
