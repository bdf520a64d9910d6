// Package apperror defines the typed errors shared by every layer.
//
// Services return an *AppError wrapping one of the sentinel kinds below.
// Handlers map the kind to an HTTP status with errors.Is, so the service
// layer never needs to know about status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation error")
	ErrConflict             = errors.New("conflict")
	ErrForbidden            = errors.New("forbidden")
	ErrUpstreamAuth         = errors.New("upstream authentication failed")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrRateLimited          = errors.New("rate limited")
	ErrInferenceUnavailable = errors.New("inference unavailable")
	ErrPersistence          = errors.New("persistence error")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable error message
	Field   string // optional: request field causing the error
	Status  int    // optional: upstream HTTP status, 0 when not applicable
	Cause   error  // optional: underlying error, kept for logs only
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel kind and the cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
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

// Conflict reports a request that clashes with the current state of an
// upstream resource, such as GitHub answering 409 for a locked repository.
func Conflict(status int, message string, cause error) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Status:  status,
		Cause:   cause,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// UpstreamAuth reports that GitHub rejected a code, token, or App assertion.
// status is the upstream HTTP status (0 if GitHub answered 200 with an error body).
func UpstreamAuth(status int, message string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstreamAuth,
		Message: message,
		Status:  status,
		Cause:   cause,
	}
}

// UpstreamUnavailable reports a network failure or a 5xx from an upstream API.
func UpstreamUnavailable(status int, message string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstreamUnavailable,
		Message: message,
		Status:  status,
		Cause:   cause,
	}
}

// RateLimited reports an exhausted GitHub quota. Callers should back off
// rather than treat it as an authentication failure.
func RateLimited(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrRateLimited,
		Message: message,
		Status:  429,
		Cause:   cause,
	}
}

func InferenceUnavailable(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrInferenceUnavailable,
		Message: message,
		Cause:   cause,
	}
}

func Persistence(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrPersistence,
		Message: message,
		Cause:   cause,
	}
}
