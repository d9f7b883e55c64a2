package tglog

import (
	"context"
	"sync/atomic"
	"time"
)

// AsyncHandler enqueues records on the calling goroutine and delivers them
// from a single worker goroutine, in enqueue order. The worker owns the
// transport: it creates it on first send and closes it on exit.
type AsyncHandler struct {
	level  int64
	sender *sender
	errs   *errorSurface
	diag   *diagnostics
	stats  counters
	state  lifecycle

	newTransport func() Transport
	transport    Transport // Worker goroutine only

	queue   *fifo[Record]
	pending atomic.Int64 // Enqueued or in-flight records

	ctx     context.Context
	cancel  context.CancelFunc
	abort   chan struct{} // Closed to make the worker abandon the queue
	cleaned chan struct{} // Closed by the worker after transport teardown
	done    chan struct{} // Closed when the worker goroutine returns

	pollInterval   time.Duration
	drainTimeout   time.Duration
	cleanupTimeout time.Duration
	joinTimeout    time.Duration
}

// NewAsyncHandler validates cfg and starts the worker goroutine
func NewAsyncHandler(cfg *Config, opts ...Option) (*AsyncHandler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(cfg, opts)

	limiter := o.limiter
	if limiter == nil {
		limiter = NewContextLimiter(millis(cfg.MinIntervalMs))
	}

	h := &AsyncHandler{
		level:          cfg.Level,
		diag:           newDiagnostics(cfg.InternalErrorsToStderr),
		newTransport:   o.newTransport,
		queue:          newFIFO[Record](0),
		abort:          make(chan struct{}),
		cleaned:        make(chan struct{}),
		done:           make(chan struct{}),
		pollInterval:   millis(cfg.PollIntervalMs),
		drainTimeout:   millis(cfg.DrainTimeoutMs),
		cleanupTimeout: millis(cfg.CleanupTimeoutMs),
		joinTimeout:    millis(cfg.JoinTimeoutMs),
	}
	s, err := newSender(cfg, o, limiter, &h.stats)
	if err != nil {
		return nil, err
	}
	h.sender = s
	h.errs = &errorSurface{callback: o.onError, stats: &h.stats, diag: h.diag}
	h.ctx, h.cancel = context.WithCancel(context.Background())

	h.state.advance(StateCreated, StateRunning)
	go h.run()
	return h, nil
}

// Handle enqueues rec without blocking. After Close it reports ErrClosed.
func (h *AsyncHandler) Handle(rec Record) {
	if rec.Level < h.level {
		return
	}

	h.pending.Add(1)
	if err := h.queue.push(rec); err != nil {
		h.pending.Add(-1)
		h.stats.dropped.Add(1)
		h.errs.handle(err)
	}
}

// run is the worker loop: deliver until the queue is sealed and empty, or
// until abort is signalled.
func (h *AsyncHandler) run() {
	defer close(h.done)
	defer h.teardown()

	timer := time.NewTimer(h.pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-h.abort:
			h.abandon()
			return
		default:
		}

		rec, ok, sealed := h.queue.pop()
		if !ok {
			if sealed {
				h.state.advance(StateStopRequested, StateDraining)
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(h.pollInterval)
			select {
			case <-h.queue.wake:
			case <-timer.C:
			case <-h.abort:
			}
			continue
		}

		if sealed {
			h.state.advance(StateStopRequested, StateDraining)
		}
		h.process(rec)
	}
}

// process delivers one record; failures go to the error surface and never
// stop the loop
func (h *AsyncHandler) process(rec Record) {
	defer h.pending.Add(-1)

	if h.transport == nil {
		h.transport = h.newTransport()
	}
	if err := h.sender.deliver(h.ctx, h.transport, rec); err != nil {
		h.stats.failed.Add(1)
		h.errs.handle(err)
	}
}

// abandon drops everything still queued
func (h *AsyncHandler) abandon() {
	left := h.queue.takeAll()
	if len(left) == 0 {
		return
	}
	h.pending.Add(-int64(len(left)))
	h.stats.dropped.Add(uint64(len(left)))
	h.diag.logf("abandoned %d queued records at shutdown", len(left))
}

// teardown closes the transport on the worker goroutine
func (h *AsyncHandler) teardown() {
	defer close(h.cleaned)
	if h.transport == nil {
		return
	}
	if err := h.transport.Close(); err != nil {
		h.diag.logf("failed to close transport: %v", err)
	}
	h.transport = nil
}

// Close stops the handler in bounded steps: seal the queue, wait for the
// worker to drain it, signal the worker to abandon the rest and close its
// transport, cancel its context, and wait for it to exit. An error reports
// which bound was exceeded. Only the first call does anything.
func (h *AsyncHandler) Close() error {
	if !h.state.advance(StateRunning, StateStopRequested) {
		return nil
	}
	h.queue.seal()

	var finalErr error

	drained := waitUntil(h.drainTimeout, func() bool {
		return h.pending.Load() == 0
	})
	if !drained {
		finalErr = combineErrors(finalErr,
			fmtErrorf("queue not drained within %v (%d records pending)", h.drainTimeout, h.pending.Load()))
	}

	close(h.abort)
	if !waitClosed(h.cleaned, h.cleanupTimeout) {
		finalErr = combineErrors(finalErr,
			fmtErrorf("worker cleanup did not finish within %v", h.cleanupTimeout))
	}

	h.cancel()

	if !waitClosed(h.done, h.joinTimeout) {
		finalErr = combineErrors(finalErr,
			fmtErrorf("worker did not exit within %v", h.joinTimeout))
	}

	h.state.finish()
	return finalErr
}

// State returns the worker's lifecycle position
func (h *AsyncHandler) State() WorkerState {
	return h.state.load()
}

// Pending returns the number of records enqueued or being delivered
func (h *AsyncHandler) Pending() int {
	return int(h.pending.Load())
}

// Stats returns a snapshot of the delivery counters
func (h *AsyncHandler) Stats() Stats {
	return h.stats.snapshot()
}
