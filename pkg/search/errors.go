package search

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers branch on these with errors.Is.
var (
	// ErrNotConfigured means the client was used before a store was
	// attached. This is a programmer error, not a runtime condition.
	ErrNotConfigured = errors.New("search store not configured")

	// ErrEmptyResult means a lookup that requires exactly one match
	// found none.
	ErrEmptyResult = errors.New("no matching documents")

	// ErrTooManyResults means a lookup that requires exactly one match
	// found several.
	ErrTooManyResults = errors.New("more than one matching document")

	// ErrWriteFailed means a write did not succeed within the configured
	// number of attempts. The last store error is wrapped alongside.
	ErrWriteFailed = errors.New("write failed after retries exhausted")

	// ErrBackendUnavailable means the store did not reach an acceptable
	// health status within the configured probe budget.
	ErrBackendUnavailable = errors.New("search backend unavailable")
)

// Error wraps a store fault with the operation that produced it.
type Error struct {
	// Op is the operation, e.g. "Index" or "DeleteByQuery".
	Op string

	// Err is the underlying error.
	Err error

	// Msg is optional context.
	Msg string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
