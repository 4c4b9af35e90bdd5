// Package apperr normalizes every failure the asset client can meet into a
// single formatted shape and maps it to text fit for end users.
package apperr

import (
	"fmt"
)

// Kind records where a failure originated.
type Kind int

const (
	KindUnknown Kind = iota
	// KindResponse: the server answered with a non-2xx status.
	KindResponse
	// KindNoResponse: the request was sent but nothing came back.
	KindNoResponse
	// KindRequest: the request could not be built or sent.
	KindRequest
	// KindApp: a failure raised by application code.
	KindApp
)

func (k Kind) String() string {
	switch k {
	case KindResponse:
		return "response"
	case KindNoResponse:
		return "no_response"
	case KindRequest:
		return "request"
	case KindApp:
		return "app"
	default:
		return "unknown"
	}
}

// Well-known error codes.
const (
	CodeNetwork               = "NETWORK_ERROR"
	CodeTimeout               = "TIMEOUT_ERROR"
	CodeApp                   = "APP_ERROR"
	CodeUnknown               = "UNKNOWN_ERROR"
	CodeRequest               = "REQUEST_ERROR"
	CodeValidation            = "VALIDATION_ERROR"
	CodeNotFound              = "ASSET_NOT_FOUND"
	CodeDuplicateSerial       = "DUPLICATE_SERIAL"
	CodeDuplicateSerialNumber = "DUPLICATE_SERIAL_NUMBER"
	CodeDatabase              = "DATABASE_ERROR"
	CodeInternal              = "INTERNAL_SERVER_ERROR"
)

// Error is the uniform formatted error. Status is 0 when no HTTP response
// was received.
type Error struct {
	Kind    Kind
	Message string
	Code    string
	Status  int
	Details any
	Cause   error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPCode returns the fallback code for a status without a server code.
func HTTPCode(status int) string {
	return fmt.Sprintf("HTTP_%d", status)
}
