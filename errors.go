package rcu

import (
	"errors"
	"fmt"
)

// Error is a structured engine error, carried as the payload of every
// fatal-precondition panic the engine raises.
type Error struct {
	Op    string    // operation that failed, e.g. "RegisterThread", "Defer"
	Code  ErrorCode // high-level error category
	Msg   string    // human-readable detail
	Inner error      // wrapped error, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("rcu: %s: %s (%s)", e.Op, e.Msg, e.Code)
	}
	return fmt.Sprintf("rcu: %s: %s", e.Op, e.Code)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeNotInitialized means a package-level convenience function
	// was called before Init installed a process-default Domain.
	ErrCodeNotInitialized ErrorCode = "not initialized"

	// ErrCodeNotRegistered means an operation targeted a Deferer that
	// was never returned by RegisterThread, or was already unregistered.
	ErrCodeNotRegistered ErrorCode = "deferer not registered"

	// ErrCodeAlreadyRegistered means Unregister was called twice on the
	// same handle, or Init was called while a process-default Domain
	// was already installed.
	ErrCodeAlreadyRegistered ErrorCode = "deferer already unregistered"

	// ErrCodeShutdown means an operation was attempted on a Domain that
	// has already been shut down.
	ErrCodeShutdown ErrorCode = "domain shut down"

	// ErrCodeInvalidParameters means a configuration Option produced an
	// unusable value (e.g. a non-positive ring size).
	ErrCodeInvalidParameters ErrorCode = "invalid parameters"
)

func newError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// fatalf panics with a structured *Error. This is the engine's
// realization of spec.md's "fatal assertion failure aborts the
// process" philosophy: these are all programmer-error paths (misuse
// of the API), never conditions a well-behaved caller can hit and
// recover from.
func fatalf(op string, code ErrorCode, format string, args ...any) {
	panic(newError(op, code, fmt.Sprintf(format, args...)))
}

// IsCode reports whether err is, or wraps, an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
