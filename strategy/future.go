package strategy

import "context"

// Future is the pending result of a strategy started with Start. It looks
// the same whichever coordination mechanism produces the total.
type Future struct {
	done  chan struct{}
	total int64
	err   error
}

// Start executes s on its own goroutine.
func Start(ctx context.Context, s Strategy, cfg Config) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.total, f.err = s.Execute(ctx, cfg)
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Await returns the result, or ctx.Err() if ctx ends first. The run keeps
// going after an abandoned Await; cancel the context passed to Start to
// stop it.
func (f *Future) Await(ctx context.Context) (int64, error) {
	select {
	case <-f.done:
		return f.total, f.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
