// Package apperrors defines OpenAct's error taxonomy and the redaction
// policy applied before errors reach logs or API responses.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Type is a machine-readable error kind.
type Type string

// Error kinds from the OpenAct error taxonomy.
const (
	TypeNotFound     Type = "not_found"
	TypeInvalid      Type = "invalid"
	TypeConflict     Type = "conflict"
	TypeForbidden    Type = "forbidden"
	TypeRateLimit    Type = "rate_limit"
	TypeUpstream     Type = "upstream"
	TypeTimeout      Type = "timeout"
	TypeInternal     Type = "internal"
	TypeUnregistered Type = "connector_not_registered"
)

// Error is OpenAct's structured error value. It carries a machine-readable
// Type, a human message, and an optional wrapped cause.
type Error struct {
	Type    Type
	Message string
	Cause   error

	// State, when non-empty, is the AuthFlow state name active when the
	// error occurred (§4.4 propagation policy).
	State string
	// RunID, when non-empty, identifies the AuthFlow run the error belongs to.
	RunID string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to Cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an Error of the given type.
func New(t Type, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

// WithState annotates the error with the AuthFlow state it occurred in.
func (e *Error) WithState(state string) *Error {
	e.State = state
	return e
}

// WithRunID annotates the error with the AuthFlow run it occurred in.
func (e *Error) WithRunID(runID string) *Error {
	e.RunID = runID
	return e
}

// Constructors per kind, mirroring the teacher's NewXError pattern.

// NewNotFoundError builds a NotFound error.
func NewNotFoundError(message string, cause error) *Error { return New(TypeNotFound, message, cause) }

// NewInvalidError builds an Invalid error.
func NewInvalidError(message string, cause error) *Error { return New(TypeInvalid, message, cause) }

// NewConflictError builds a Conflict error.
func NewConflictError(message string, cause error) *Error { return New(TypeConflict, message, cause) }

// NewForbiddenError builds a Forbidden error.
func NewForbiddenError(message string, cause error) *Error {
	return New(TypeForbidden, message, cause)
}

// NewRateLimitError builds a RateLimit error.
func NewRateLimitError(message string, cause error) *Error {
	return New(TypeRateLimit, message, cause)
}

// NewUpstreamError builds an Upstream error.
func NewUpstreamError(message string, cause error) *Error {
	return New(TypeUpstream, message, cause)
}

// NewTimeoutError builds a Timeout error.
func NewTimeoutError(message string, cause error) *Error { return New(TypeTimeout, message, cause) }

// NewInternalError builds an Internal error.
func NewInternalError(message string, cause error) *Error {
	return New(TypeInternal, message, cause)
}

// NewConnectorNotRegisteredError builds a ConnectorNotRegistered error.
func NewConnectorNotRegisteredError(message string, cause error) *Error {
	return New(TypeUnregistered, message, cause)
}

// Code maps an error to an HTTP status code. Non-*Error values map to 500.
func Code(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Type {
	case TypeNotFound:
		return http.StatusNotFound
	case TypeInvalid:
		return http.StatusBadRequest
	case TypeConflict:
		return http.StatusConflict
	case TypeForbidden:
		return http.StatusForbidden
	case TypeRateLimit:
		return http.StatusTooManyRequests
	case TypeUpstream:
		return http.StatusBadGateway
	case TypeTimeout:
		return http.StatusGatewayTimeout
	case TypeUnregistered:
		return http.StatusNotFound
	case TypeInternal:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err (or its chain) is an *Error of the given type.
func Is(err error, t Type) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == t
}
