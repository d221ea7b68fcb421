package strategy

import (
	"context"

	"github.com/NetPo4ki/primescope/aggregate"
	"github.com/NetPo4ki/primescope/pipeline"
)

func pipelineStage(ctx context.Context, r *run) (int64, error) {
	acc := aggregate.New(aggregate.AtomicKind)
	st := pipeline.NewStage(ctx, r.workers(), func(ctx context.Context, i int) error {
		c, err := r.process(ctx, i)
		if err != nil {
			return err
		}
		acc.Add(c)
		return nil
	}, r.scopeFn...)
	for i := range r.part.Indices() {
		if !st.Post(i) {
			break
		}
	}
	st.Complete()
	// Workers observe ctx themselves; waiting past it keeps in-flight
	// batches owned by this call.
	if err := st.Wait(context.WithoutCancel(ctx)); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return acc.Total(), nil
}
