package errors

import (
	stdErrors "errors"
	"fmt"
)

// NotFoundError represents an identifier that no catalog recognizes.
type NotFoundError struct {
	ID string
	// Attempts records how many catalogs were tried before giving up.
	Attempts int
}

func (e *NotFoundError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("book %q not found in any of %d catalogs", e.ID, e.Attempts)
	}
	return fmt.Sprintf("book %q not found", e.ID)
}

// NewNotFoundError creates a NotFoundError for the given identifier.
func NewNotFoundError(id string, attempts int) *NotFoundError {
	return &NotFoundError{ID: id, Attempts: attempts}
}

// IsNotFoundError reports whether err is a NotFoundError (even when wrapped).
func IsNotFoundError(err error) bool {
	var nfErr *NotFoundError
	return stdErrors.As(err, &nfErr)
}
