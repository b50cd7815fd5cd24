// Package apperror defines the domain error taxonomy shared by every layer.
//
// Services return these errors; the HTTP layer maps them to status codes at
// the handler boundary (writeError). Nothing below the handlers knows about
// HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// AppError carries a sentinel (for errors.Is checks) plus a human-readable
// message. Field is set for validation errors so the client can highlight
// the first offending input.
type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized reports a request with no valid session behind it.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden reports a caller who is authenticated but lacks permission.
// HTTP handlers map this to 403.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}
