package parallel

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/NetPo4ki/primescope/interop/errgroup"
)

// Body folds one item into a worker's local value.
type Body[T, L any] func(ctx context.Context, item T, local L) (L, error)

// For runs body over items using at most workers goroutines. Items are
// claimed one at a time from a shared cursor, so uneven item costs balance
// across workers.
func For[T, L any](ctx context.Context, items []T, workers int, init func() L, body Body[T, L], finally func(L)) error {
	if len(items) == 0 {
		return ctx.Err()
	}
	var cursor atomic.Int64
	next := func() (T, bool) {
		i := cursor.Add(1) - 1
		if i >= int64(len(items)) {
			var zero T
			return zero, false
		}
		return items[i], true
	}
	return run(ctx, clamp(workers, len(items)), next, init, body, finally)
}

// ForEach is For over a lazily produced sequence. The sequence is pulled
// under a lock, so it need not be safe for concurrent use.
func ForEach[T, L any](ctx context.Context, seq iter.Seq[T], workers int, init func() L, body Body[T, L], finally func(L)) error {
	pull, stop := iter.Pull(seq)
	defer stop()
	var mu sync.Mutex
	done := false
	next := func() (T, bool) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			var zero T
			return zero, false
		}
		v, ok := pull()
		done = !ok
		return v, ok
	}
	return run(ctx, clamp(workers, -1), next, init, body, finally)
}

func run[T, L any](ctx context.Context, workers int, next func() (T, bool), init func() L, body Body[T, L], finally func(L)) error {
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			local := init()
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				item, ok := next()
				if !ok {
					break
				}
				var err error
				if local, err = body(gctx, item, local); err != nil {
					return err
				}
			}
			if finally != nil {
				finally(local)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// A parent cancelled after the last item still fails the loop.
	return ctx.Err()
}

// clamp bounds workers to [1, n]; n < 0 means the item count is unknown.
func clamp(workers, n int) int {
	if workers < 1 {
		workers = 1
	}
	if n >= 0 && workers > n {
		workers = n
	}
	return workers
}
