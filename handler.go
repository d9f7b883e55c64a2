package tglog

import (
	"time"
)

// Handler accepts records for delivery. Handle never blocks on or reports
// delivery problems; those reach the error callback instead.
type Handler interface {
	Handle(rec Record)
	Close() error
}

var (
	_ Handler = (*SyncHandler)(nil)
	_ Handler = (*AsyncHandler)(nil)
	_ Handler = (*QueuedHandler)(nil)
)

// Option customizes a handler at construction
type Option func(*options)

type options struct {
	formatter    Formatter
	onError      func(error)
	limiter      RateLimiter
	newTransport func() Transport
}

// WithFormatter replaces the default text formatter
func WithFormatter(f Formatter) Option {
	return func(o *options) {
		o.formatter = f
	}
}

// WithErrorCallback sets the function receiving delivery failures
func WithErrorCallback(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithLimiter replaces the per-handler limiter, e.g. with one shared across processes
func WithLimiter(l RateLimiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

// WithTransport makes the handler use t instead of creating its own
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.newTransport = func() Transport { return t }
	}
}

// WithTransportFactory sets how the handler creates its transport. The async
// handler calls it lazily from its worker goroutine.
func WithTransportFactory(fn func() Transport) Option {
	return func(o *options) {
		o.newTransport = fn
	}
}

func buildOptions(cfg *Config, opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.formatter == nil {
		o.formatter = NewTextFormatter(cfg)
	}
	if o.newTransport == nil {
		timeout := millis(cfg.RequestTimeoutMs)
		o.newTransport = func() Transport { return NewHTTPTransport(timeout) }
	}
	return o
}

// errorSurface is the single place delivery failures are reported
type errorSurface struct {
	callback func(error)
	stats    *counters
	diag     *diagnostics
}

// handle passes err to the callback. A panicking callback is counted and
// logged to diagnostics, never re-raised.
func (s *errorSurface) handle(err error) {
	if err == nil {
		return
	}
	if s.callback == nil {
		s.diag.logf("delivery failed: %v", err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.stats.callbackFailures.Add(1)
			s.diag.logf("%v", &CallbackError{Cause: err, Recovered: r})
		}
	}()
	s.callback(err)
}

// waitUntil polls cond every minWaitTime until it holds or timeout elapses
func waitUntil(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for !cond() {
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(minWaitTime)
	}
	return true
}

// waitClosed waits for ch to close or timeout to elapse
func waitClosed(ch <-chan struct{}, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}
