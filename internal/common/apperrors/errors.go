// Package apperrors provides the error type used across the client library.
// Errors form chains that remain compatible with errors.Is/errors.As, carry an
// HTTP status code where one applies, and preserve the original remote message
// so callers never see a generic substitute.
package apperrors

import (
	"errors"
)

// Error extends the standard error interface with chaining and status code
// management. All mutating methods return a new Error so sentinel errors
// declared at package level are never modified.
type Error interface {
	error
	Unwrap() error

	New(msg string) Error                   // derives a new error using the current one as base
	Msg(msg string) Error                   // new error with message, wrapping the original
	MsgErr(msg string, errs ...error) Error // new error with message, wrapping extra errors
	Err(errs ...error) Error                // attaches additional errors, keeping the message
	SetStatusCode(int) Error                // sets the HTTP status code
	StatusCode() int                        // returns the HTTP status code, 0 if unset
}

type appError struct {
	msg        string
	base       error
	wrapped    []error
	statusCode int
}

// New creates a root-level error with the given message.
func New(msg string) Error {
	return &appError{msg: msg}
}

func (e *appError) Error() string {
	return e.msg
}

func (e *appError) Unwrap() error {
	return e.base
}

func (e *appError) New(msg string) Error {
	return &appError{
		msg:        msg,
		base:       e,
		statusCode: e.statusCode,
	}
}

func (e *appError) Msg(msg string) Error {
	return &appError{
		msg:        msg,
		base:       e,
		wrapped:    append([]error{e}, e.wrapped...),
		statusCode: e.statusCode,
	}
}

func (e *appError) MsgErr(msg string, errs ...error) Error {
	return &appError{
		msg:        msg,
		base:       e,
		wrapped:    append([]error{e}, errs...),
		statusCode: e.statusCode,
	}
}

func (e *appError) Err(errs ...error) Error {
	return &appError{
		msg:        e.msg,
		base:       e,
		wrapped:    append([]error{e}, errs...),
		statusCode: e.statusCode,
	}
}

func (e *appError) SetStatusCode(code int) Error {
	cp := *e
	cp.statusCode = code
	return &cp
}

func (e *appError) StatusCode() int {
	return e.statusCode
}

// Is matches against the base error and every wrapped error, so a derived
// error satisfies errors.Is for each of its ancestors.
func (e *appError) Is(target error) bool {
	if target == nil {
		return false
	}
	if errors.Is(e.base, target) {
		return true
	}
	for _, err := range e.wrapped {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
