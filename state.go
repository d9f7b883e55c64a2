package tglog

import (
	"sync/atomic"
)

// Stats is a snapshot of a handler's delivery counters
type Stats struct {
	Sent             uint64 // Chunks accepted by the API
	Failed           uint64 // Records whose delivery ended in an error
	Dropped          uint64 // Records refused or abandoned without a delivery attempt
	CallbackFailures uint64 // Panics recovered from the error callback
}

// counters holds the live values behind Stats
type counters struct {
	sent             atomic.Uint64
	failed           atomic.Uint64
	dropped          atomic.Uint64
	callbackFailures atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Sent:             c.sent.Load(),
		Failed:           c.failed.Load(),
		Dropped:          c.dropped.Load(),
		CallbackFailures: c.callbackFailures.Load(),
	}
}

// WorkerState is the lifecycle position of a background worker
type WorkerState int32

const (
	StateCreated WorkerState = iota
	StateRunning
	StateStopRequested
	StateDraining
	StateStopped
)

func (s WorkerState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop_requested"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// lifecycle is a forward-only WorkerState holder
type lifecycle struct {
	v atomic.Int32
}

func (l *lifecycle) load() WorkerState {
	return WorkerState(l.v.Load())
}

// advance moves from one state to the next, failing if another transition won
func (l *lifecycle) advance(from, to WorkerState) bool {
	return l.v.CompareAndSwap(int32(from), int32(to))
}

// finish moves to Stopped from any state
func (l *lifecycle) finish() {
	l.v.Store(int32(StateStopped))
}
