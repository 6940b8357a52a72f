// Package errors defines the coded errors shared by the grid engine, the
// item sources, the HTTP server and the CLI.
//
// Every failure that crosses a package boundary carries a [Code]. Codes are
// stable strings: the server writes them into JSON error bodies and the
// remote source maps them back, so a client sees the same code the server
// raised.
//
// Codes fall into a few families:
//   - INVALID_*, UNKNOWN_KIND: the caller passed something unusable
//   - NOT_ATTACHED, ALREADY_ATTACHED: engine lifecycle misuse
//   - FETCH_FAILED, NETWORK_ERROR, TIMEOUT: a source could not serve a page
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
//
// Usage:
//
//	err := errors.Wrap(errors.ErrCodeFetchFailed, cause, "page %q", cursor)
//	if errors.Transient(err) {
//	    eng.Retry()
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error class.
type Code string

const (
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidOptions Code = "INVALID_OPTIONS"
	ErrCodeInvalidItem    Code = "INVALID_ITEM"
	ErrCodeInvalidSource  Code = "INVALID_SOURCE"
	ErrCodeInvalidCursor  Code = "INVALID_CURSOR"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeUnknownKind    Code = "UNKNOWN_KIND"

	ErrCodeNotAttached     Code = "NOT_ATTACHED"
	ErrCodeAlreadyAttached Code = "ALREADY_ATTACHED"

	ErrCodeNotFound Code = "NOT_FOUND"

	ErrCodeFetchFailed Code = "FETCH_FAILED"
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Transient reports whether c names a failure that may clear on its own.
func (c Code) Transient() bool {
	return c == ErrCodeNetwork || c == ErrCodeTimeout
}

// Error pairs a [Code] with a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with code whose cause is err.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// Is reports whether any coded error in err's chain has code.
func Is(err error, code Code) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// Transient reports whether err's chain holds a transient code. A fetch
// that failed this way is worth retrying.
func Transient(err error) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Code.Transient() {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode returns the outermost code in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the outermost message without its code prefix. Errors
// without a code are returned unchanged.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
