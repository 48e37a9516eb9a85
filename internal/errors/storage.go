package errors

import (
	stdErrors "errors"
	"fmt"
)

// StorageError represents a failed operation against the local store.
type StorageError struct {
	Op  string // the logical operation, e.g. "save", "remove", "migrate"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError for the given operation.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is a StorageError (even when wrapped).
func IsStorageError(err error) bool {
	var stErr *StorageError
	return stdErrors.As(err, &stErr)
}
