// Package apperr defines the typed failures raised by the service layer and
// their mapping to HTTP status codes. A handler returns the first violated
// precondition; nothing is retried.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type baseError struct {
	message string
}

func (e *baseError) Error() string {
	return e.message
}

// ValidationError is malformed or out-of-range input (HTTP 400).
type ValidationError struct {
	baseError
}

func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{baseError{message: fmt.Sprintf(format, args...)}}
}

// ConflictError is a duplicate unique field (HTTP 409).
type ConflictError struct {
	baseError
}

func NewConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{baseError{message: fmt.Sprintf(format, args...)}}
}

// NotFoundError is a reference to a missing record (HTTP 404).
type NotFoundError struct {
	baseError
}

func NewNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{baseError{message: fmt.Sprintf(format, args...)}}
}

// UnauthorizedError is bad credentials or a bad token (HTTP 401).
type UnauthorizedError struct {
	baseError
}

func NewUnauthorized(format string, args ...interface{}) *UnauthorizedError {
	return &UnauthorizedError{baseError{message: fmt.Sprintf(format, args...)}}
}

// HTTPStatus maps a domain error to the status code the boundary should
// answer with. Unknown errors are internal.
func HTTPStatus(err error) int {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return http.StatusConflict
	}
	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return http.StatusNotFound
	}
	var unauthorizedErr *UnauthorizedError
	if errors.As(err, &unauthorizedErr) {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// Message returns the text to surface to the caller. Internal errors are
// masked with a generic message.
func Message(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}
