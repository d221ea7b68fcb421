// Package pipeline provides a single processing stage with a fixed internal
// worker pool: callers post items, mark input complete, and await
// completion.
package pipeline

import (
	"context"
	"sync"

	"github.com/NetPo4ki/primescope/queue"
	"github.com/NetPo4ki/primescope/scope"
)

// Stage consumes posted items with a fixed pool of workers. Posting never
// blocks: items are buffered until a worker is free. A Stage must be
// completed (or its context cancelled) for its workers to exit.
type Stage[T any] struct {
	in      *queue.Concurrent[T]
	sc      *scope.Scope
	workers int

	done chan struct{}
	once sync.Once
	err  error
}

// NewStage starts workers goroutines (at least one) running fn for each
// posted item. The first error from fn faults the stage: remaining items are
// dropped and further posts are declined.
func NewStage[T any](ctx context.Context, workers int, fn func(ctx context.Context, item T) error, opts ...scope.Option) *Stage[T] {
	if workers < 1 {
		workers = 1
	}
	st := &Stage[T]{
		in:      queue.New[T](),
		sc:      scope.New(ctx, scope.FailFast, opts...),
		workers: workers,
		done:    make(chan struct{}),
	}
	for w := 0; w < workers; w++ {
		st.sc.Go(func(ctx context.Context) error {
			for {
				item, ok, err := st.in.Dequeue(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := fn(ctx, item); err != nil {
					return err
				}
			}
		})
	}
	go func() {
		st.err = st.sc.Wait()
		// A faulted stage declines new input.
		st.in.Close()
		close(st.done)
	}()
	return st
}

// Workers returns the size of the internal pool.
func (st *Stage[T]) Workers() int { return st.workers }

// Post offers item to the stage. It returns false once the stage is
// completed or faulted.
func (st *Stage[T]) Post(item T) bool {
	if st.sc.Context().Err() != nil {
		return false
	}
	return st.in.Enqueue(item) == nil
}

// Complete marks input finished. Workers drain buffered items and exit.
func (st *Stage[T]) Complete() {
	st.once.Do(st.in.Close)
}

// Completion is closed when every worker has exited.
func (st *Stage[T]) Completion() <-chan struct{} { return st.done }

// Wait blocks until completion or ctx is done and returns the stage's
// first error.
func (st *Stage[T]) Wait(ctx context.Context) error {
	select {
	case <-st.done:
		return st.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
