// Package apperr defines the error taxonomy for transform requests.
//
// Every failure surfaced to a caller is classified by a Kind, which maps
// to a single HTTP status code. Errors wrap their cause so callers can
// still use errors.Is/errors.As on the underlying error.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a request failure.
type Kind int

const (
	// KindInternal is an unclassified server-side failure.
	KindInternal Kind = iota
	// KindValidation indicates missing or malformed request input.
	KindValidation
	// KindPayloadTooLarge indicates an upload exceeding the configured size limit.
	KindPayloadTooLarge
	// KindTimeout indicates a transformation exceeding its wall-clock budget.
	KindTimeout
	// KindTransform indicates a failure reported by the transformation tool.
	KindTransform
	// KindResource indicates a workspace allocation or disk failure.
	KindResource
	// KindBusy indicates the concurrency ceiling was reached.
	KindBusy
)

// String returns a short name for the kind, used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindTimeout:
		return "timeout"
	case KindTransform:
		return "transform"
	case KindResource:
		return "resource"
	case KindBusy:
		return "busy"
	default:
		return "internal"
	}
}

// HTTPStatus returns the status code a failure of this kind is reported with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindBusy:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error, keeping it available for unwrapping.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from an error chain.
// Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user-facing message for an error chain.
// Unclassified errors get a generic message so internal details never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return "internal error"
}
