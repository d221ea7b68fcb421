// Package queue provides an unbounded multi-producer multi-consumer FIFO
// with close signalling, backed by a growable ring buffer.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/eapache/queue"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("queue: closed")

// Concurrent is safe for any number of producers and consumers. Consumers
// drain remaining items after Close and then observe the end of the queue.
type Concurrent[T any] struct {
	mu     sync.Mutex
	buf    *queue.Queue
	closed bool
	// ready is closed and replaced whenever items arrive or the queue closes.
	ready chan struct{}
}

// New returns an empty open queue.
func New[T any]() *Concurrent[T] {
	return &Concurrent[T]{buf: queue.New(), ready: make(chan struct{})}
}

// From returns a closed queue pre-filled with items, for consumers that only
// need to drain a fixed workload.
func From[T any](items ...T) *Concurrent[T] {
	q := New[T]()
	for _, it := range items {
		q.buf.Add(it)
	}
	q.closed = true
	close(q.ready)
	return q
}

// Enqueue appends v. It never blocks.
func (q *Concurrent[T]) Enqueue(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.buf.Add(v)
	q.wakeLocked()
	return nil
}

// TryDequeue removes the head item if there is one.
func (q *Concurrent[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// Dequeue blocks until an item is available, the queue is closed and empty
// (ok == false, err == nil), or ctx is done.
func (q *Concurrent[T]) Dequeue(ctx context.Context) (v T, ok bool, err error) {
	for {
		q.mu.Lock()
		if v, ok = q.popLocked(); ok {
			q.mu.Unlock()
			return v, true, nil
		}
		if q.closed {
			q.mu.Unlock()
			return v, false, nil
		}
		ready := q.ready
		q.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return v, false, ctx.Err()
		}
	}
}

// Close stops further Enqueue calls and wakes blocked consumers. It is
// idempotent.
func (q *Concurrent[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ready)
}

func (q *Concurrent[T]) popLocked() (T, bool) {
	if q.buf.Length() == 0 {
		var zero T
		return zero, false
	}
	return q.buf.Remove().(T), true
}

func (q *Concurrent[T]) wakeLocked() {
	close(q.ready)
	q.ready = make(chan struct{})
}
