package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrInvalidURL  = errors.New("invalid URL")
	ErrNotFound    = errors.New("not found")
	ErrStoreClosed = errors.New("history store is closed")
	ErrNoHistory   = errors.New("no previous audit for URL")
	ErrBadWeight   = errors.New("aggregation weight must be positive")
)

// FetchError wraps errors that occur while fetching a site-wide signal or a
// page. Retryable distinguishes transient network/server trouble from hard
// failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// StoreError wraps errors from a history backend.
type StoreError struct {
	Backend string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("history store error (%s): %v", e.Backend, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
