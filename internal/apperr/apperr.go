// Package apperr defines the closed set of failures the identity workflow can
// surface and the single mapping from those failures to HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is a tagged failure. Code is a stable machine readable identifier,
// Message is safe to show to clients, Err is the raw cause kept for logs.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(message string, details any) *Error {
	return &Error{Kind: KindValidation, Code: "invalid_request", Message: message, Details: details}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: "internal_error", Message: message, Err: cause}
}

// As extracts the tagged error from err. Untagged errors are reported as an
// internal failure wrapping the original.
func As(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	return Internal("Internal server error", err)
}

func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return As(err).Kind
}

// HTTPStatus maps any error to the status code the transport should write.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
