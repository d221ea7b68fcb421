package strategy

import (
	"context"

	"github.com/NetPo4ki/primescope/batch"
	"github.com/NetPo4ki/primescope/kernel"
	"github.com/NetPo4ki/primescope/limit"
	"github.com/NetPo4ki/primescope/scope"
)

var registry = []Strategy{
	&strategy{Spawn, "one goroutine per batch, no permit, joined and summed", spawnPerBatch},
	&strategy{SpawnPermit, "one goroutine per batch, each holding a semaphore permit while it runs", spawnPermit},
	&strategy{ParallelFor, "parallel loop over a materialised index slice, per-worker subtotal merged once", parallelFor},
	&strategy{ParallelForEach, "parallel loop over a lazy index sequence, per-worker subtotal merged once", parallelForEach},
	&strategy{MapReduce, "parallel map of indices to counts reduced by sum", mapReduce},
	&strategy{Pipeline, "single pipeline stage with a fixed worker pool fed by posted indices", pipelineStage},
	&strategy{ChannelWorkers, "index channel drained by workers adding to a shared total", channelWorkers},
	&strategy{ChannelAggregate, "index queue drained by workers sending counts to one aggregator", channelAggregate},
	&strategy{ForAsync, "bounded errgroup loop over the numeric index range", forAsync},
	&strategy{ForEachAsync, "bounded errgroup loop over a lazy index sequence", forEachAsync},
}

// All returns every strategy in a stable order.
func All() []Strategy {
	return append([]Strategy(nil), registry...)
}

// IDs returns every strategy id in the order of All.
func IDs() []ID {
	ids := make([]ID, len(registry))
	for i, s := range registry {
		ids[i] = s.ID()
	}
	return ids
}

// Lookup returns the strategy named id.
func Lookup(id ID) (Strategy, error) {
	for _, s := range registry {
		if s.ID() == id {
			return s, nil
		}
	}
	return nil, batch.Invalidf("unknown strategy %q", id)
}

// Option adjusts the Config built by Run.
type Option func(*Config)

// WithKernel replaces the batch kernel.
func WithKernel(k kernel.Func) Option { return func(c *Config) { c.Kernel = k } }

// WithObserver attaches a batch observer.
func WithObserver(o BatchObserver) Option { return func(c *Config) { c.Observer = o } }

// WithScopeObserver attaches a scope observer.
func WithScopeObserver(o scope.Observer) Option { return func(c *Config) { c.ScopeObserver = o } }

// Run validates every input before any batch starts, then executes the
// strategy named id over [1, n]. concurrency is -1 (unbounded), 0 (hardware
// default) or k > 0.
func Run(ctx context.Context, id ID, n, batchSize int64, concurrency int, opts ...Option) (int64, error) {
	s, err := Lookup(id)
	if err != nil {
		return 0, err
	}
	lim, err := limit.Parse(concurrency)
	if err != nil {
		return 0, err
	}
	cfg := Config{N: n, BatchSize: batchSize, Limit: lim}
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	return s.Execute(ctx, cfg)
}
