// Package errors provides the coded errors returned by the suggestion gateway.
//
// Usage:
//
//	// In the gateway - return typed errors
//	if mood == "" {
//	    return nil, errors.InvalidInput("No emotion data provided")
//	}
//
//	// At the transport boundary - map the code to a status
//	var appErr *errors.Error
//	if errors.As(err, &appErr) {
//	    status := appErr.HTTPStatus()
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes exposed to callers.
const (
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamMalformed   Code = "UPSTREAM_MALFORMED"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeInternal            Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case CodeUpstreamMalformed:
		return http.StatusBadGateway
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the user-facing message category for a code.
// Invalid input keeps its own message since the caller can act on it.
func (c Code) UserMessage() string {
	switch c {
	case CodeUpstreamUnavailable:
		return "The song suggestion service is temporarily unavailable. Please try again."
	case CodeUpstreamMalformed:
		return "The song suggestion service returned an unexpected response."
	case CodeRateLimited:
		return "Too many requests. Please slow down."
	default:
		return "Internal server error."
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// PublicMessage returns the message safe to show to an end user.
func (e *Error) PublicMessage() string {
	if e.Code == CodeInvalidInput {
		return e.Message
	}
	return e.Code.UserMessage()
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrInvalidInput        = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrUpstreamUnavailable = &Error{Code: CodeUpstreamUnavailable, Message: "upstream unavailable"}
	ErrUpstreamMalformed   = &Error{Code: CodeUpstreamMalformed, Message: "upstream response malformed"}
	ErrRateLimited         = &Error{Code: CodeRateLimited, Message: "rate limited"}
	ErrInternal            = &Error{Code: CodeInternal, Message: "internal error"}
)

// InvalidInput creates an invalid input error.
func InvalidInput(msg string) *Error {
	return &Error{Code: CodeInvalidInput, Message: msg}
}

// UpstreamUnavailable creates an error for transport failures and timeouts.
func UpstreamUnavailable(msg string) *Error {
	return &Error{Code: CodeUpstreamUnavailable, Message: msg}
}

// UpstreamUnavailablef creates an upstream unavailable error with formatted message.
func UpstreamUnavailablef(format string, args ...any) *Error {
	return &Error{Code: CodeUpstreamUnavailable, Message: fmt.Sprintf(format, args...)}
}

// UpstreamMalformed creates an error for upstream replies that cannot be used.
func UpstreamMalformed(msg string) *Error {
	return &Error{Code: CodeUpstreamMalformed, Message: msg}
}

// UpstreamMalformedf creates an upstream malformed error with formatted message.
func UpstreamMalformedf(format string, args ...any) *Error {
	return &Error{Code: CodeUpstreamMalformed, Message: fmt.Sprintf(format, args...)}
}

// RateLimited creates a rate limited error.
func RateLimited(msg string) *Error {
	return &Error{Code: CodeRateLimited, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// CodeOf returns the code carried by err, or CodeInternal if err is not coded.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
