package errors

import (
	stdErrors "errors"
	"fmt"
)

// ContentUnavailableError represents a book whose candidate content URLs
// were all probed without yielding readable text.
type ContentUnavailableError struct {
	BookID     string
	Candidates int // number of candidate URLs that were tried
}

func (e *ContentUnavailableError) Error() string {
	return fmt.Sprintf("no readable content for book %q after trying %d candidates", e.BookID, e.Candidates)
}

// NewContentUnavailableError creates a ContentUnavailableError for the given book.
func NewContentUnavailableError(bookID string, candidates int) *ContentUnavailableError {
	return &ContentUnavailableError{BookID: bookID, Candidates: candidates}
}

// IsContentUnavailableError reports whether err is a ContentUnavailableError (even when wrapped).
func IsContentUnavailableError(err error) bool {
	var cuErr *ContentUnavailableError
	return stdErrors.As(err, &cuErr)
}
