// SPDX-License-Identifier: MIT

package bridge

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound        = errors.New("host: resource not found")
	ErrHostUnavailable = errors.New("host: unreachable or transport failure")
	ErrHostError       = errors.New("host: internal error (5xx)")
	ErrBadResponse     = errors.New("host: invalid response format or malformed data")
	ErrTimeout         = errors.New("host: request timed out")
)

// Error is a rich error type that wraps the sentinel errors with context.
type Error struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error // Nested lower-level error (e.g. net.Error)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("bridge: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Sentinel
}
