package strategy

import (
	"context"

	"github.com/NetPo4ki/primescope/aggregate"
	"github.com/NetPo4ki/primescope/parallel"
)

func zero() int64 { return 0 }

func (r *run) fold(ctx context.Context, i int, local int64) (int64, error) {
	c, err := r.process(ctx, i)
	return local + c, err
}

func parallelFor(ctx context.Context, r *run) (int64, error) {
	indices := make([]int, r.count())
	for i := range indices {
		indices[i] = i
	}
	acc := aggregate.New(aggregate.AtomicKind)
	if err := parallel.For(ctx, indices, r.workers(), zero, r.fold, acc.Add); err != nil {
		return 0, err
	}
	return acc.Total(), nil
}

func parallelForEach(ctx context.Context, r *run) (int64, error) {
	acc := aggregate.New(aggregate.AtomicKind)
	if err := parallel.ForEach(ctx, r.part.Indices(), r.workers(), zero, r.fold, acc.Add); err != nil {
		return 0, err
	}
	return acc.Total(), nil
}

func mapReduce(ctx context.Context, r *run) (int64, error) {
	w := r.workers()
	// About four chunks per worker keeps the tail short without a task per batch.
	chunk := max(1, r.count()/(4*w))
	return parallel.MapReduce(ctx, r.part.Indices(), w, chunk, r.process, sum, 0)
}

func sum(a, b int64) int64 { return a + b }
