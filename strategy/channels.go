package strategy

import (
	"context"
	"slices"

	"github.com/NetPo4ki/primescope/aggregate"
	"github.com/NetPo4ki/primescope/queue"
)

// channelWorkers fills an index channel up front (single writer), closes it,
// and lets workers drain it (multiple readers).
func channelWorkers(ctx context.Context, r *run) (int64, error) {
	indices := make(chan int, r.count())
	for i := range r.count() {
		indices <- i
	}
	close(indices)

	acc := aggregate.New(aggregate.AtomicKind)
	sc := r.scope(ctx)
	for range min(r.workers(), r.count()) {
		sc.Go(func(ctx context.Context) error {
			for i := range indices {
				c, err := r.process(ctx, i)
				if err != nil {
					return err
				}
				acc.Add(c)
			}
			return nil
		})
	}
	if err := sc.Wait(); err != nil {
		return 0, err
	}
	return acc.Total(), nil
}

// channelAggregate separates counting from summing: workers push per-batch
// counts into a results channel (multiple writers) that one aggregator
// drains (single reader). The channel is closed only after every worker has
// returned, and the aggregator is joined on its own.
func channelAggregate(ctx context.Context, r *run) (int64, error) {
	q := queue.From(slices.Collect(r.part.Indices())...)
	w := min(r.workers(), r.count())
	results := make(chan int64, w)

	var total int64
	agg := r.scope(context.WithoutCancel(ctx))
	agg.Go(func(context.Context) error {
		for c := range results {
			total += c
		}
		return nil
	})

	workers := r.scope(ctx)
	for range w {
		workers.Go(func(ctx context.Context) error {
			for {
				i, ok := q.TryDequeue()
				if !ok {
					return nil
				}
				c, err := r.process(ctx, i)
				if err != nil {
					return err
				}
				select {
				case results <- c:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}

	werr := workers.Wait()
	close(results)
	aerr := agg.Wait()
	if werr != nil {
		return 0, werr
	}
	if aerr != nil {
		return 0, aerr
	}
	return total, nil
}
