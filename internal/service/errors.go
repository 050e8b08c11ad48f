package service

import (
	"errors"
	"fmt"
)

// Code identifies a class of guard failure
type Code string

const (
	CodeConflict          Code = "CONFLICT"
	CodeAlreadyAccepted   Code = "ALREADY_ACCEPTED"
	CodeNotYetEligible    Code = "NOT_YET_ELIGIBLE"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeForbidden         Code = "FORBIDDEN"
)

// Sentinels for errors.Is; only the code is compared
var (
	ErrConflict          = &Error{Code: CodeConflict}
	ErrAlreadyAccepted   = &Error{Code: CodeAlreadyAccepted}
	ErrNotYetEligible    = &Error{Code: CodeNotYetEligible}
	ErrInvalidTransition = &Error{Code: CodeInvalidTransition}
	ErrValidation        = &Error{Code: CodeValidation}
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrForbidden         = &Error{Code: CodeForbidden}
)

// Error is a synchronous guard failure with a reason a user can read
type Error struct {
	Code   Code
	Reason string
	// Details carries identifiers useful to the caller, e.g. the conflicting offer
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Reason: fmt.Sprintf(format, args...)}
}

func conflictError(reason string) *Error {
	return &Error{Code: CodeConflict, Reason: reason}
}

func alreadyAccepted() *Error {
	return &Error{Code: CodeAlreadyAccepted, Reason: "this offer has already been accepted by another worker"}
}

func notYetEligible(reason string) *Error {
	return &Error{Code: CodeNotYetEligible, Reason: reason}
}

func invalidTransition(format string, args ...interface{}) *Error {
	return newError(CodeInvalidTransition, format, args...)
}

func validationError(format string, args ...interface{}) *Error {
	return newError(CodeValidation, format, args...)
}

func notFound(what, id string) *Error {
	return newError(CodeNotFound, "%s %s not found", what, id)
}

func forbidden(format string, args ...interface{}) *Error {
	return newError(CodeForbidden, format, args...)
}

// AsError extracts the typed error, nil for infrastructure failures
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
