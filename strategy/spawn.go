package strategy

import (
	"context"

	"github.com/NetPo4ki/primescope/aggregate"
	"github.com/NetPo4ki/primescope/scope"
)

// spawnPerBatch starts one task per batch. Each task writes its own slot, so
// the join needs no shared counter.
func spawnPerBatch(ctx context.Context, r *run) (int64, error) {
	parts := make([]int64, r.count())
	sc := r.scope(ctx)
	for i := range parts {
		sc.Go(func(ctx context.Context) error {
			c, err := r.process(ctx, i)
			if err != nil {
				return err
			}
			parts[i] = c
			return nil
		})
	}
	if err := sc.Wait(); err != nil {
		return 0, err
	}
	var total int64
	for _, c := range parts {
		total += c
	}
	return total, nil
}

// spawnPermit is spawnPerBatch with a counting permit per running batch.
func spawnPermit(ctx context.Context, r *run) (int64, error) {
	if !r.lim.Bounded() {
		return spawnPerBatch(ctx, r)
	}
	acc := aggregate.New(aggregate.AtomicKind)
	sc := r.scope(ctx, scope.WithMaxConcurrency(r.workers()))
	for i := range r.count() {
		sc.Go(func(ctx context.Context) error {
			c, err := r.process(ctx, i)
			if err != nil {
				return err
			}
			acc.Add(c)
			return nil
		})
	}
	if err := sc.Wait(); err != nil {
		return 0, err
	}
	return acc.Total(), nil
}
