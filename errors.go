package tglog

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrClosed is reported when a record arrives after the handler was closed
	ErrClosed = errors.New("tglog: handler closed")
	// ErrQueueFull is wrapped by EnqueueError when a bounded queue is at capacity
	ErrQueueFull = errors.New("tglog: queue full")
)

// RateLimitError reports a 429 response. RetryAfter carries the server hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("tglog: rate limited by telegram, retry after %v", e.RetryAfter)
}

// APIError reports any other non-2xx response
type APIError struct {
	StatusCode  int
	Body        string
	Description string // Telegram "description" field, when the body carries one
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("tglog: telegram API returned %d: %s", e.StatusCode, e.Description)
	}
	return fmt.Sprintf("tglog: telegram API returned %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the failure is worth retrying
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500
}

// EnqueueError reports a record that could not be accepted into a queue
type EnqueueError struct {
	Record Record
	Err    error
}

func (e *EnqueueError) Error() string {
	return fmt.Sprintf("tglog: record not enqueued: %v", e.Err)
}

func (e *EnqueueError) Unwrap() error {
	return e.Err
}

// CallbackError records a panic raised by the user error callback. It is never
// returned to callers, only counted and reported through diagnostics.
type CallbackError struct {
	Cause     error // The delivery error being reported
	Recovered any   // Value recovered from the callback
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("tglog: error callback panicked: %v (while reporting: %v)", e.Recovered, e.Cause)
}

// IsRateLimited reports whether err is a RateLimitError and returns its hint
func IsRateLimited(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}
