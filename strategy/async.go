package strategy

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/NetPo4ki/primescope/aggregate"
)

// forAsync runs one goroutine per index, at most workers at a time. Go
// blocks the loop while the group is full; waiting goroutines park without
// holding an OS thread.
func forAsync(ctx context.Context, r *run) (int64, error) {
	acc := aggregate.New(aggregate.AtomicKind)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i := 0; i < r.count(); i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error { return r.addTo(gctx, acc, i) })
	}
	return awaitGroup(ctx, g, acc)
}

func forEachAsync(ctx context.Context, r *run) (int64, error) {
	acc := aggregate.New(aggregate.AtomicKind)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i := range r.part.Indices() {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error { return r.addTo(gctx, acc, i) })
	}
	return awaitGroup(ctx, g, acc)
}

func (r *run) addTo(ctx context.Context, acc aggregate.Accumulator, i int) error {
	c, err := r.process(ctx, i)
	if err != nil {
		return err
	}
	acc.Add(c)
	return nil
}

func awaitGroup(ctx context.Context, g *errgroup.Group, acc aggregate.Accumulator) (int64, error) {
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return acc.Total(), nil
}
