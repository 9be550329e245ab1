package services

import (
	"errors"
	"fmt"

	"github.com/Shofyan/ecommerce-app/internal/models"
	"github.com/Shofyan/ecommerce-app/internal/repositories"
)

// ErrorKind tells callers which class of failure a use case hit.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindBackend    ErrorKind = "backend"
)

// ApplicationError is the only error type returned by ProductService.
type ApplicationError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ApplicationError) Unwrap() error { return e.Err }

// Message is a caller-safe description. Backend details are not exposed.
func (e *ApplicationError) Message() string {
	switch e.Kind {
	case KindValidation:
		var vErr *models.ValidationError
		if errors.As(e.Err, &vErr) {
			return vErr.Error()
		}
		return e.Err.Error()
	case KindNotFound:
		return "product not found"
	default:
		return "internal storage error"
	}
}

// KindOf returns the kind of an ApplicationError anywhere in err's chain, or "" when there is none.
func KindOf(err error) ErrorKind {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsBackend(err error) bool    { return KindOf(err) == KindBackend }

func classify(op string, err error) *ApplicationError {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr
	}
	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr) && !errors.Is(err, repositories.ErrBackend):
		return &ApplicationError{Kind: KindValidation, Op: op, Err: err}
	case errors.Is(err, repositories.ErrNotFound):
		return &ApplicationError{Kind: KindNotFound, Op: op, Err: err}
	default:
		return &ApplicationError{Kind: KindBackend, Op: op, Err: err}
	}
}
