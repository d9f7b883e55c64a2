package tglog

import (
	"context"
	"sync/atomic"
)

// SyncHandler delivers each record on the calling goroutine. Concurrent
// callers are spaced by a blocking limiter; their HTTP calls may overlap.
type SyncHandler struct {
	level     int64
	sender    *sender
	transport Transport
	errs      *errorSurface
	stats     counters
	closed    atomic.Bool
}

// NewSyncHandler validates cfg and creates the handler with its transport
func NewSyncHandler(cfg *Config, opts ...Option) (*SyncHandler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(cfg, opts)

	limiter := o.limiter
	if limiter == nil {
		limiter = NewBlockingLimiter(millis(cfg.MinIntervalMs))
	}

	h := &SyncHandler{level: cfg.Level}
	s, err := newSender(cfg, o, limiter, &h.stats)
	if err != nil {
		return nil, err
	}
	h.sender = s
	h.errs = &errorSurface{
		callback: o.onError,
		stats:    &h.stats,
		diag:     newDiagnostics(cfg.InternalErrorsToStderr),
	}
	h.transport = o.newTransport()
	return h, nil
}

// Handle delivers rec, blocking for rate limiting and the HTTP round trips
func (h *SyncHandler) Handle(rec Record) {
	if rec.Level < h.level {
		return
	}
	if h.closed.Load() {
		h.stats.dropped.Add(1)
		h.errs.handle(ErrClosed)
		return
	}

	if err := h.sender.deliver(context.Background(), h.transport, rec); err != nil {
		h.stats.failed.Add(1)
		h.errs.handle(err)
	}
}

// Close releases the transport. Subsequent calls do nothing.
func (h *SyncHandler) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := h.transport.Close(); err != nil {
		return fmtErrorf("failed to close transport: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the delivery counters
func (h *SyncHandler) Stats() Stats {
	return h.stats.snapshot()
}
