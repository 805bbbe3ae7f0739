// Package apperror defines the application's error taxonomy.
//
// Every failure a request can run into falls into one of these buckets:
//
//	ErrValidation -> malformed body, missing field, bad path id   (422)
//	ErrConflict   -> duplicate unique key (username)              (422)
//	ErrNotFound   -> referenced user / category / sighting absent (404)
//	ErrForbidden  -> password mismatch on lookup-as-login         (403)
//
// Anything else (a plain error from the store) is a store failure and
// becomes a 500. The mapping to status codes lives in the handler package;
// this package knows nothing about HTTP.
package apperror

import (
	"errors"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

type AppError struct {
	Err     error  // sentinel this error wraps
	Message string // Human-readable error message, sent to the client as-is
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that a referenced entity does not exist.
func NotFound(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a duplicate value for a unique field.
func Conflict(field, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Field:   field,
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
