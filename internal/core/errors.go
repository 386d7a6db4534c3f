package core

import (
	"errors"
	"net/http"
)

// Class partitions service failures by who has to act on them. Client-fault
// classes carry messages safe to return verbatim; Internal causes stay in the
// logs and callers see a generic message.
type Class int

const (
	ClassUnauthorized Class = iota + 1
	ClassForbidden
	ClassNotFound
	ClassInvalid
	ClassInternal
)

// Error is a classified service failure. Msg never contains secret material,
// stored hashes, or identifiers belonging to other principals.
type Error struct {
	Class Class
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Msg + ": " + e.cause.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

func Unauthorized(msg string) error {
	return &Error{Class: ClassUnauthorized, Msg: msg}
}

func Forbidden(msg string) error {
	return &Error{Class: ClassForbidden, Msg: msg}
}

func NotFound(msg string) error {
	return &Error{Class: ClassNotFound, Msg: msg}
}

func Invalid(msg string) error {
	return &Error{Class: ClassInvalid, Msg: msg}
}

// Internal wraps a server-side cause. The cause is preserved for logging and
// errors.Is/As but is never shown to API callers.
func Internal(msg string, cause error) error {
	return &Error{Class: ClassInternal, Msg: msg, cause: cause}
}

// ClassOf extracts the failure class from an error chain. Unclassified errors
// are server faults.
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ClassInternal
}

// HTTPStatus maps an error chain to the API status code.
func HTTPStatus(err error) int {
	switch ClassOf(err) {
	case ClassUnauthorized:
		return http.StatusUnauthorized
	case ClassForbidden:
		return http.StatusForbidden
	case ClassNotFound:
		return http.StatusNotFound
	case ClassInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message an API caller may see. Server faults
// collapse to a generic message so internals never leak.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Class != ClassInternal {
		return e.Msg
	}
	return "internal error"
}
