package search

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "error with message",
			err: &Error{
				Op:  "Index",
				Err: ErrWriteFailed,
				Msg: "store rejected document",
			},
			expected: "Index: store rejected document: write failed after retries exhausted",
		},
		{
			name: "error without message",
			err: &Error{
				Op:  "SearchAll",
				Err: ErrBackendUnavailable,
			},
			expected: "SearchAll: search backend unavailable",
		},
		{
			name: "error with nested error",
			err: &Error{
				Op:  "DeleteByQuery",
				Err: errors.New("connection timeout"),
				Msg: "failed to reach store",
			},
			expected: "DeleteByQuery: failed to reach store: connection timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "matches wrapped sentinel",
			err:    &Error{Op: "FileTags", Err: ErrEmptyResult},
			target: ErrEmptyResult,
			want:   true,
		},
		{
			name:   "matches nested error",
			err:    &Error{Op: "SetFileTags", Err: &Error{Op: "SearchAll", Err: ErrTooManyResults}},
			target: ErrTooManyResults,
			want:   true,
		},
		{
			name:   "does not match a different sentinel",
			err:    &Error{Op: "FileTags", Err: ErrEmptyResult},
			target: ErrTooManyResults,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}
