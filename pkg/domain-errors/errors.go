// Package dErrors defines the coded error taxonomy shared by all engine modules.
//
// Services return these coded errors; the HTTP layer translates codes to
// statuses in exactly one place. Stores return pkg/platform/sentinel facts
// instead and services translate them here, so the taxonomy never leaks
// downward into SQL code.
package dErrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure. The wire representation is the string
// value, so renaming a code is a breaking API change.
type Code string

const (
	// CodeBadRequest covers malformed request bodies and unparseable identifiers.
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput covers syntactically valid requests that fail domain
	// validation: non-positive amounts, excess decimal places, self-transfers.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound covers unknown licenses, accounts, officers, and policies.
	CodeNotFound Code = "not_found"
	// CodeConflict covers duplicate bank codes and in-flight idempotency keys.
	CodeConflict Code = "conflict"
	// CodeInvalidState covers license transitions out of REVOKED and similar
	// state-machine violations.
	CodeInvalidState Code = "invalid_state"
	// CodeLicenseNotActive refuses financial operations against a suspended or
	// revoked license's account.
	CodeLicenseNotActive Code = "license_not_active"
	// CodeInsufficientFunds refuses debits the account cannot cover.
	CodeInsufficientFunds Code = "insufficient_funds"
	// CodeDailyLimitExceeded refuses mints that would push the day's net
	// emission past the active policy limit.
	CodeDailyLimitExceeded Code = "daily_limit_exceeded"
	// CodeRateLimited refuses requests that exceed the per-officer call budget.
	CodeRateLimited Code = "rate_limited"
	// CodeUnauthenticated covers requests with a missing, invalid or expired
	// bearer token. Distinct from CodeUnauthorized: the caller has no
	// established identity yet.
	CodeUnauthenticated Code = "unauthenticated"
	// CodeUnauthorized covers callers whose role lacks the capability.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvariantViolation marks broken model invariants. Services usually
	// re-code these as CodeInvalidInput or CodeConflict before returning.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeTimeout marks context cancellation inside a unit of work.
	CodeTimeout Code = "timeout"
	// CodeInternal is the fallback for storage and infrastructure failures.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err yields nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			return false
		}
	}
	return false
}

// Is is a readability alias for HasCode at handler call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or an empty string.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
