// Package apperror defines the error kinds shared by the services and the HTTP layer.
// Services return *AppError values (possibly wrapped with fmt.Errorf and %w); the
// controllers pick the status code with errors.Is against the sentinels below.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrUpstream        = errors.New("upstream failure")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // safe to show to the caller
	Field   string // optional offending input field
	Cause   error  // optional underlying error, never shown in production
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

// InvalidCredentials is returned for every login failure, whichever half of the
// credential pair was wrong.
func InvalidCredentials() *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: "Invalid credentials"}
}

func Unauthenticated(message string) *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

func NotFound(resource, id string) *AppError {
	return &AppError{Err: ErrNotFound, Message: fmt.Sprintf("%s not found with id %s", resource, id)}
}

// NoResults is a not-found outcome for a query that matched nothing.
func NoResults(message string) *AppError {
	return &AppError{Err: ErrNotFound, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message}
}

func RateLimited(message string) *AppError {
	return &AppError{Err: ErrRateLimited, Message: message}
}

// Upstream wraps a database or object-store failure.
func Upstream(message string, cause error) *AppError {
	return &AppError{Err: ErrUpstream, Message: message, Cause: cause}
}
