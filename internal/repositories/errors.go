package repositories

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no product matches the requested id.
var ErrNotFound = errors.New("product not found")

// ErrBackend matches every *BackendError with errors.Is.
var ErrBackend = errors.New("storage backend failure")

// BackendError wraps an I/O, connectivity or data corruption failure of the storage backend.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrBackend }

func backendError(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}
