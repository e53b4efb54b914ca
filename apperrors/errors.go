// Package apperrors defines the error taxonomy shared by the stores, the
// fulfillment orchestrator and the HTTP layer. Every error that crosses a
// package boundary carries a Code so handlers can map it to a status code
// without string matching.
package apperrors

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeValidation           Code = "validation"
	CodeReferentialIntegrity Code = "referential_integrity"
	CodeInvalidTransition    Code = "invalid_transition"
	CodeNotFound             Code = "not_found"
	CodePartialFailure       Code = "partial_failure"
	CodeServer               Code = "server"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	err error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// Is matches on Code only, so callers can use errors.Is with a bare
// &Error{Code: ...} sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func ReferentialIntegrityf(format string, args ...any) *Error {
	return &Error{Code: CodeReferentialIntegrity, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransitionf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func PartialFailuref(format string, args ...any) *Error {
	return &Error{Code: CodePartialFailure, Message: fmt.Sprintf(format, args...)}
}

func Serverf(format string, args ...any) *Error {
	return &Error{Code: CodeServer, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause to an Error while keeping its Code.
func Wrap(e *Error, cause error) *Error {
	if cause != nil {
		e.err = cause
		e.Details = cause.Error()
	}
	return e
}

// CodeOf extracts the taxonomy code from err, defaulting to CodeServer for
// anything that did not originate in this package.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeServer
}

func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
