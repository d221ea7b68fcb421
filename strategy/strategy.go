package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/NetPo4ki/primescope/aggregate"
	"github.com/NetPo4ki/primescope/batch"
	"github.com/NetPo4ki/primescope/kernel"
	"github.com/NetPo4ki/primescope/limit"
	"github.com/NetPo4ki/primescope/observe/nop"
	"github.com/NetPo4ki/primescope/scope"
)

// ID names a strategy in configuration and on the command line.
type ID string

const (
	Spawn            ID = "spawn"
	SpawnPermit      ID = "spawn-permit"
	ParallelFor      ID = "parallel-for"
	ParallelForEach  ID = "parallel-foreach"
	MapReduce        ID = "map-reduce"
	Pipeline         ID = "pipeline"
	ChannelWorkers   ID = "channel-workers"
	ChannelAggregate ID = "channel-aggregate"
	ForAsync         ID = "for-async"
	ForEachAsync     ID = "foreach-async"
)

// BatchObserver receives one start and one finish event per evaluated batch.
// Implementations must be safe for concurrent use.
type BatchObserver interface {
	BatchStarted(ctx context.Context, b batch.Batch)
	BatchFinished(ctx context.Context, b batch.Batch, count int64, dur time.Duration, err error)
}

// Config is the input of one run.
type Config struct {
	N         int64
	BatchSize int64
	Limit     limit.Limit

	// Kernel evaluates a batch; nil means kernel.Primes.
	Kernel kernel.Func
	// Observer sees batch events; nil discards them.
	Observer BatchObserver
	// ScopeObserver is attached to every scope a strategy creates.
	ScopeObserver scope.Observer
}

// Validate reports ErrInvalidConfiguration for a non-positive range or
// batch size.
func (c Config) Validate() error {
	_, err := batch.New(c.N, c.BatchSize)
	return err
}

// Strategy is one coordination mechanism.
type Strategy interface {
	ID() ID
	Description() string
	Execute(ctx context.Context, cfg Config) (int64, error)
}

type execFunc func(ctx context.Context, r *run) (int64, error)

// strategy enforces the shared contract around a coordination body.
type strategy struct {
	id   ID
	desc string
	exec execFunc
}

func (s *strategy) ID() ID              { return s.id }
func (s *strategy) Description() string { return s.desc }

func (s *strategy) Execute(ctx context.Context, cfg Config) (int64, error) {
	r, err := newRun(cfg)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", s.id, err)
	}
	total, err := s.exec(ctx, r)
	if err == nil {
		err = r.ledger.Verify()
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", s.id, err)
	}
	return total, nil
}

// run holds the state owned by a single Execute call.
type run struct {
	part    batch.Partition
	lim     limit.Limit
	kernel  kernel.Func
	obs     BatchObserver
	scopeFn []scope.Option
	ledger  *aggregate.Ledger
}

func newRun(cfg Config) (*run, error) {
	part, err := batch.New(cfg.N, cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	r := &run{
		part:   part,
		lim:    cfg.Limit,
		kernel: cfg.Kernel,
		obs:    cfg.Observer,
		ledger: aggregate.NewLedger(part.Count()),
	}
	if r.kernel == nil {
		r.kernel = kernel.Primes
	}
	if r.obs == nil {
		r.obs = nop.New()
	}
	if cfg.ScopeObserver != nil {
		r.scopeFn = append(r.scopeFn, scope.WithObserver(cfg.ScopeObserver))
	}
	return r, nil
}

func (r *run) count() int   { return r.part.Count() }
func (r *run) workers() int { return r.lim.Workers() }

func (r *run) scope(ctx context.Context, opts ...scope.Option) *scope.Scope {
	return scope.New(ctx, scope.FailFast, append(append([]scope.Option(nil), r.scopeFn...), opts...)...)
}

// process evaluates batch i exactly once and records it in the ledger.
func (r *run) process(ctx context.Context, i int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b := r.part.At(i)
	r.obs.BatchStarted(ctx, b)
	start := time.Now()
	c, err := r.call(ctx, b)
	if err == nil && c < 0 {
		err = fmt.Errorf("negative partial result %d", c)
	}
	r.obs.BatchFinished(ctx, b, c, time.Since(start), err)
	if err != nil {
		return 0, batch.NewWorkerError(i, err)
	}
	if err := r.ledger.Mark(i); err != nil {
		return 0, err
	}
	return c, nil
}

func (r *run) call(ctx context.Context, b batch.Batch) (c int64, err error) {
	defer func() {
		if v := recover(); v != nil {
			c, err = 0, &scope.PanicError{Value: v}
		}
	}()
	return r.kernel(ctx, b)
}
