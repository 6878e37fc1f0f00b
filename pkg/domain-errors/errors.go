// Package domainerrors defines coded domain errors shared across services,
// stores, and transport. Handlers translate codes to HTTP statuses in one
// place so domain code never imports net/http.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a class of domain failure.
type Code string

const (
	// CodeInvalidInput marks a malformed or out-of-enumeration value caught at
	// a trust boundary (e.g. an unknown entity category).
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest marks a structurally broken request (bad JSON, missing
	// required fields).
	CodeBadRequest Code = "bad_request"

	// CodeNotFound marks a reference to a record that does not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict marks a uniqueness violation (duplicate reference number).
	CodeConflict Code = "conflict"

	// CodeTimeout marks a cancelled or deadline-exceeded operation.
	CodeTimeout Code = "timeout"

	// CodeInternal marks everything the caller cannot act on.
	CodeInternal Code = "internal"
)

// Error is the concrete coded error type. Wrapped causes stay reachable via
// errors.Unwrap for store-level inspection.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a human-readable message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
