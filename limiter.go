package tglog

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces successive sends to one destination. Acquire returns once
// the caller may start a send; it only fails when a context-aware
// implementation is cancelled.
type RateLimiter interface {
	Acquire(ctx context.Context) error
}

// DefaultMinInterval is the spacing Telegram tolerates for one chat
const DefaultMinInterval = time.Second

// newSpacing returns a single-token bucket refilled once per interval: the
// first acquisition passes, each later one waits out the rest of the interval.
// A non-positive interval disables spacing.
func newSpacing(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// BlockingLimiter suspends the calling goroutine until its slot comes up. The
// context is not consulted, matching a synchronous caller that has nothing
// else to do while it waits.
type BlockingLimiter struct {
	lim *rate.Limiter
}

// NewBlockingLimiter creates a limiter enforcing interval between acquisitions
func NewBlockingLimiter(interval time.Duration) *BlockingLimiter {
	return &BlockingLimiter{lim: newSpacing(interval)}
}

// Acquire implements RateLimiter
func (l *BlockingLimiter) Acquire(context.Context) error {
	return l.lim.Wait(context.Background())
}

// ContextLimiter abandons the wait when the context is cancelled, so a worker
// being torn down does not sit out the full interval. An abandoned wait
// returns its slot.
type ContextLimiter struct {
	lim *rate.Limiter
}

// NewContextLimiter creates a limiter enforcing interval between acquisitions
func NewContextLimiter(interval time.Duration) *ContextLimiter {
	return &ContextLimiter{lim: newSpacing(interval)}
}

// Acquire implements RateLimiter. rate refuses up front a wait that would
// outlast the context deadline; that case surfaces as ctx.Err() once the
// deadline passes, like a cancelled wait.
func (l *ContextLimiter) Acquire(ctx context.Context) error {
	err := l.lim.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
