// Package errgroup provides an adapter that mimics golang.org/x/sync/errgroup
// semantics using the local scope implementation. Tasks run inside a FailFast
// scope, so panics surface as errors instead of crashing the process.
package errgroup

import (
	"context"

	"github.com/NetPo4ki/primescope/scope"
)

// Group is an errgroup-like wrapper over scope.Scope (FailFast).
type Group struct {
	s   *scope.Scope
	ctx context.Context
	sem chan struct{}
}

// WithContext creates a Group bound to ctx. Returned context is canceled when
// any function passed to Go returns a non-nil error.
func WithContext(ctx context.Context, opts ...scope.Option) (*Group, context.Context) {
	s := scope.New(ctx, scope.FailFast, opts...)
	g := &Group{s: s, ctx: s.Context()}
	return g, g.ctx
}

// SetLimit caps the number of active functions at n; n < 0 removes the cap.
// Unlike a scope limiter, Go blocks the caller until a slot is free. SetLimit
// must not be called while functions are active.
func (g *Group) SetLimit(n int) {
	if n < 0 {
		g.sem = nil
		return
	}
	if len(g.sem) != 0 {
		panic("errgroup: modify limit while functions are still active")
	}
	g.sem = make(chan struct{}, n)
}

// Go starts a function. It should return a non-nil error to signal failure.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	if g.sem != nil {
		g.sem <- struct{}{}
	}
	g.spawn(f)
}

func (g *Group) spawn(f func() error) {
	g.s.Go(func(context.Context) error {
		if g.sem != nil {
			defer func() { <-g.sem }()
		}
		return f()
	})
}

// Wait blocks until all functions have returned. It returns the first non-nil
// error (FailFast semantics) or nil on success.
func (g *Group) Wait() error {
	return g.s.Wait()
}
