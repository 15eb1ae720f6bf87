// Package exitcode carries process exit statuses as error values so the
// core packages never call os.Exit directly. The top-level main unwraps
// the code and terminates the process with it.
//
// Status contract:
//
//	0 — nothing to do
//	1 — user cancelled the run
//	2 — a merge frontend was required but none is configured
//	4 — the configured merge tool executable was not found
//	5 — one or more files still required action after a --test pass
package exitcode

import (
	"errors"
	"fmt"
)

// Exit statuses used across the tool.
const (
	OK           = 0
	Cancelled    = 1
	NoFrontend   = 2
	ToolNotFound = 4
	FilesPending = 5
)

// Error is an error annotated with the process exit status it should
// produce. It wraps an underlying cause when there is one.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given exit status.
func New(code int, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Newf wraps a formatted message with the given exit status.
func Newf(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

// CodeOf extracts the exit status from err. Plain errors map to 1,
// nil maps to 0.
func CodeOf(err error) int {
	if err == nil {
		return OK
	}
	var ec *Error
	if errors.As(err, &ec) {
		return ec.Code
	}
	return 1
}
