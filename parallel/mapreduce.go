package parallel

import (
	"context"
	"iter"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultChunk is the number of items MapReduce hands to one task.
const DefaultChunk = 16

// MapReduce applies mapFn to every item of seq with at most workers tasks in
// flight and folds the mapped values with reduce, starting from zero. reduce
// must be associative and commutative: chunks complete in any order.
// chunk <= 0 selects DefaultChunk.
func MapReduce[T, R any](
	ctx context.Context,
	seq iter.Seq[T],
	workers, chunk int,
	mapFn func(ctx context.Context, item T) (R, error),
	reduce func(a, b R) R,
	zero R,
) (R, error) {
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(clamp(workers, -1))

	var mu sync.Mutex
	acc := zero
	submit := func(items []T) {
		g.Go(func() error {
			part := zero
			for _, it := range items {
				if err := gctx.Err(); err != nil {
					return err
				}
				r, err := mapFn(gctx, it)
				if err != nil {
					return err
				}
				part = reduce(part, r)
			}
			mu.Lock()
			acc = reduce(acc, part)
			mu.Unlock()
			return nil
		})
	}

	buf := make([]T, 0, chunk)
	for it := range seq {
		if gctx.Err() != nil {
			break
		}
		buf = append(buf, it)
		if len(buf) == chunk {
			submit(buf)
			buf = make([]T, 0, chunk)
		}
	}
	if len(buf) > 0 && gctx.Err() == nil {
		submit(buf)
	}
	if err := g.Wait(); err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	return acc, nil
}
