package source

import (
	"errors"
	"fmt"
)

// Kind classifies an adapter failure and determines retry behavior.
type Kind int

const (
	// KindInvalidQuery is a caller error; never retried.
	KindInvalidQuery Kind = iota
	// KindRateLimited means the provider throttled us; retry after backoff.
	KindRateLimited
	// KindAuthFailure is fatal for the source for the remainder of a run.
	KindAuthFailure
	// KindTransient covers network errors and 5xx; retried with backoff.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindInvalidQuery:
		return "invalid_query"
	case KindRateLimited:
		return "rate_limited"
	case KindAuthFailure:
		return "auth_failure"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is a classified adapter failure.
type Error struct {
	Kind   Kind
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as a classified source error.
func NewError(kind Kind, src string, err error) *Error {
	return &Error{Kind: kind, Source: src, Err: err}
}

// KindOf extracts the failure kind from an error chain. Unclassified
// errors are treated as transient so callers back off rather than abort.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransient
}

// IsRetryable reports whether the call may be retried with backoff.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindTransient:
		return true
	default:
		return false
	}
}

// KindForStatus maps an HTTP status code to a failure kind.
func KindForStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuthFailure
	case status == 429:
		return KindRateLimited
	case status >= 500 || status == 408:
		return KindTransient
	default:
		return KindInvalidQuery
	}
}
