package tglog

import (
	"errors"
	"time"
)

// QueuedHandler puts a bounded buffer and its own worker goroutine in front of
// another handler. It composes with either SyncHandler or AsyncHandler.
type QueuedHandler struct {
	level int64
	inner Handler
	queue *fifo[Record]
	errs  *errorSurface
	diag  *diagnostics
	stats counters
	state lifecycle

	abort chan struct{}
	done  chan struct{}

	pollInterval time.Duration
	drainTimeout time.Duration
}

// NewQueuedHandler starts a worker forwarding records to inner. Only
// WithErrorCallback is meaningful among the options.
func NewQueuedHandler(inner Handler, cfg *Config, opts ...Option) (*QueuedHandler, error) {
	if inner == nil {
		return nil, fmtErrorf("inner handler is required")
	}
	if cfg.QueueSize <= 0 || cfg.PollIntervalMs <= 0 || cfg.DrainTimeoutMs <= 0 {
		return nil, fmtErrorf("queue_size, poll_interval_ms and drain_timeout_ms must be positive")
	}

	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	h := &QueuedHandler{
		level:        cfg.Level,
		inner:        inner,
		queue:        newFIFO[Record](int(cfg.QueueSize)),
		diag:         newDiagnostics(cfg.InternalErrorsToStderr),
		abort:        make(chan struct{}),
		done:         make(chan struct{}),
		pollInterval: millis(cfg.PollIntervalMs),
		drainTimeout: millis(cfg.DrainTimeoutMs),
	}
	h.errs = &errorSurface{callback: o.onError, stats: &h.stats, diag: h.diag}

	h.state.advance(StateCreated, StateRunning)
	go h.run()
	return h, nil
}

// Handle enqueues rec. Records below the configured level never take a
// slot. A full buffer reports an *EnqueueError; records arriving after Close
// are ignored.
func (h *QueuedHandler) Handle(rec Record) {
	if rec.Level < h.level {
		return
	}
	err := h.queue.push(rec)
	switch {
	case err == nil:
	case errors.Is(err, ErrClosed):
		h.stats.dropped.Add(1)
	default:
		h.stats.dropped.Add(1)
		h.errs.handle(&EnqueueError{Record: rec, Err: err})
	}
}

func (h *QueuedHandler) run() {
	defer close(h.done)

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.abort:
			if left := h.queue.takeAll(); len(left) > 0 {
				h.stats.dropped.Add(uint64(len(left)))
				h.diag.logf("abandoned %d queued records at shutdown", len(left))
			}
			return
		default:
		}

		rec, ok, sealed := h.queue.pop()
		if !ok {
			if sealed {
				h.state.advance(StateStopRequested, StateDraining)
				return
			}
			select {
			case <-h.queue.wake:
			case <-ticker.C:
			case <-h.abort:
			}
			continue
		}
		if sealed {
			h.state.advance(StateStopRequested, StateDraining)
		}
		h.forward(rec)
	}
}

// forward hands rec to the inner handler, containing any panic it raises
func (h *QueuedHandler) forward(rec Record) {
	defer func() {
		if r := recover(); r != nil {
			h.stats.failed.Add(1)
			h.errs.handle(fmtErrorf("inner handler panicked: %v", r))
		}
	}()
	h.inner.Handle(rec)
	h.stats.sent.Add(1)
}

// Close stops accepting records, waits for the worker to drain the buffer
// within the drain timeout, then closes the inner handler.
func (h *QueuedHandler) Close() error {
	if !h.state.advance(StateRunning, StateStopRequested) {
		return nil
	}
	h.queue.seal()

	var finalErr error
	if !waitClosed(h.done, h.drainTimeout) {
		close(h.abort)
		finalErr = fmtErrorf("queue not drained within %v", h.drainTimeout)
		// The worker finishes the record it is forwarding before it sees abort
		if !waitClosed(h.done, h.drainTimeout) {
			finalErr = combineErrors(finalErr, fmtErrorf("queue worker did not exit within %v", h.drainTimeout))
		}
	}

	if err := h.inner.Close(); err != nil {
		finalErr = combineErrors(finalErr, err)
	}

	h.state.finish()
	return finalErr
}

// State returns the worker's lifecycle position
func (h *QueuedHandler) State() WorkerState {
	return h.state.load()
}

// Stats returns a snapshot of the wrapper's counters. Sent counts records
// handed to the inner handler.
func (h *QueuedHandler) Stats() Stats {
	return h.stats.snapshot()
}
