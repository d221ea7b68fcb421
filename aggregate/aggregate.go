// Package aggregate combines per-batch partial results into one total.
//
// Accumulators are owned by a single run. Strategies that share one counter
// across workers add each partial directly; strategies that keep private
// subtotals merge them once per worker. Both produce identical sums because
// integer addition is associative and commutative.
package aggregate

import (
	"sync"
	"sync/atomic"
)

// Accumulator is a concurrency-safe running total.
type Accumulator interface {
	Add(delta int64)
	Total() int64
}

// Kind selects an Accumulator implementation.
type Kind int

const (
	AtomicKind Kind = iota
	LockedKind
)

// New returns a fresh, zeroed accumulator of the given kind.
func New(kind Kind) Accumulator {
	if kind == LockedKind {
		return &Locked{}
	}
	return &Atomic{}
}

// Atomic accumulates with fetch-and-add.
type Atomic struct {
	v atomic.Int64
}

func (a *Atomic) Add(delta int64) { a.v.Add(delta) }
func (a *Atomic) Total() int64    { return a.v.Load() }

// Locked accumulates under a mutex.
type Locked struct {
	mu sync.Mutex
	v  int64
}

func (l *Locked) Add(delta int64) {
	l.mu.Lock()
	l.v += delta
	l.mu.Unlock()
}

func (l *Locked) Total() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.v
}
