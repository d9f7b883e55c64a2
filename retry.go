package tglog

import (
	"context"
	"errors"
	"time"
)

// retryPolicy decides whether and how long to wait before re-sending a chunk
type retryPolicy struct {
	strategy RetryStrategy
	max      int
	base     time.Duration
	cap      time.Duration
}

func newRetryPolicy(cfg *Config) (retryPolicy, error) {
	strategy, err := ParseRetryStrategy(cfg.RetryStrategy)
	if err != nil {
		return retryPolicy{}, err
	}
	return retryPolicy{
		strategy: strategy,
		max:      int(cfg.MaxRetries),
		base:     millis(cfg.RetryBaseMs),
		cap:      millis(cfg.RetryMaxMs),
	}, nil
}

// next returns the wait before retry number attempt+1, or false when err is terminal
func (p retryPolicy) next(attempt int, err error) (time.Duration, bool) {
	if p.strategy == RetryDrop || attempt >= p.max || !retryable(err) {
		return 0, false
	}

	wait := p.cap
	switch {
	case p.strategy == RetryLinearBackoff:
		wait = p.base * time.Duration(attempt+1)
	case attempt < 32:
		wait = p.base << attempt
	}
	if wait > p.cap || wait <= 0 {
		wait = p.cap
	}

	if hint, ok := IsRateLimited(err); ok && hint > wait {
		wait = hint
	}
	return wait, true
}

// retryable reports whether a failed send may succeed if repeated
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	// Rate limits and transport failures
	return true
}
