package tglog

import (
	"sync"
)

// fifo is a mutex-guarded queue with a one-way seal. Once sealed it refuses
// pushes, so a consumer that sees "empty and sealed" knows no more items can
// arrive. limit 0 means unbounded.
type fifo[T any] struct {
	mu     sync.Mutex
	items  []T
	limit  int
	sealed bool
	wake   chan struct{}
}

func newFIFO[T any](limit int) *fifo[T] {
	return &fifo[T]{
		limit: limit,
		wake:  make(chan struct{}, 1),
	}
}

// push appends v and wakes the consumer
func (q *fifo[T]) push(v T) error {
	q.mu.Lock()
	if q.sealed {
		q.mu.Unlock()
		return ErrClosed
	}
	if q.limit > 0 && len(q.items) >= q.limit {
		q.mu.Unlock()
		return ErrQueueFull
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	q.signal()
	return nil
}

// pop removes the oldest item. sealed is only meaningful when ok is false.
func (q *fifo[T]) pop() (v T, ok bool, sealed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		q.items = nil
		return v, false, q.sealed
	}
	v = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true, q.sealed
}

// seal stops further pushes. Only the first call returns true.
func (q *fifo[T]) seal() bool {
	q.mu.Lock()
	first := !q.sealed
	q.sealed = true
	q.mu.Unlock()

	q.signal()
	return first
}

// takeAll empties the queue and returns what was in it
func (q *fifo[T]) takeAll() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *fifo[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *fifo[T]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
