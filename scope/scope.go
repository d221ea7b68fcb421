package scope

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// Policy decides what a task failure does to its siblings.
type Policy int

const (
	// FailFast cancels the scope on the first error.
	FailFast Policy = iota
	// Supervisor records the first error and lets siblings finish.
	Supervisor
)

// ErrPanic is matched by every error produced from a recovered task panic.
var ErrPanic = errors.New("task panicked")

// PanicError carries a recovered panic value and the stack it unwound.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

func (e *PanicError) Is(target error) bool { return target == ErrPanic }

type Option func(*Options)

type Options struct {
	PanicAsError   bool
	Observer       Observer
	MaxConcurrency int
}

func defaultOptions() Options { return Options{PanicAsError: true} }

func WithPanicAsError(v bool) Option { return func(o *Options) { o.PanicAsError = v } }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

// WithMaxConcurrency caps running tasks at n with a private limiter.
// n <= 0 leaves the scope unbounded.
func WithMaxConcurrency(n int) Option { return func(o *Options) { o.MaxConcurrency = n } }

// Observer receives scope and task lifecycle events. Implementations must be
// safe for concurrent use.
type Observer interface {
	ScopeCreated(ctx context.Context)
	ScopeCancelled(ctx context.Context, cause error)
	ScopeJoined(ctx context.Context, wait time.Duration)
	TaskStarted(ctx context.Context)
	TaskFinished(ctx context.Context, dur time.Duration, err error, panicked bool)
}

type Scope struct {
	ctx      context.Context
	cancel   context.CancelFunc
	policy   Policy
	wg       sync.WaitGroup
	mu       sync.Mutex
	firstErr error
	canceled bool

	opts Options
	obs  Observer
	lim  Limiter
}

func New(parent context.Context, policy Policy, optFns ...Option) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return newScope(parent, policy, opts)
}

func newScope(parent context.Context, policy Policy, opts Options) *Scope {
	ctx, cancel := context.WithCancel(parent)
	s := &Scope{ctx: ctx, cancel: cancel, policy: policy, opts: opts, obs: opts.Observer}
	if opts.MaxConcurrency > 0 {
		s.lim = newLimiter(opts.MaxConcurrency)
	}
	if s.obs != nil {
		s.obs.ScopeCreated(ctx)
	}
	return s
}

func (s *Scope) Context() context.Context { return s.ctx }

// Go spawns fn immediately. With a limiter, fn runs only after it holds a
// permit; a task whose permit wait is cancelled records the context error
// and never runs.
func (s *Scope) Go(fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.lim != nil {
			if err := s.lim.Acquire(s.ctx); err != nil {
				s.fail(err)
				return
			}
			defer s.lim.Release()
		}
		s.run(fn)
	}()
}

func (s *Scope) run(fn func(ctx context.Context) error) {
	var start time.Time
	defer func() {
		if r := recover(); r != nil {
			if !s.opts.PanicAsError {
				if s.obs != nil {
					s.obs.TaskFinished(s.ctx, time.Since(start), nil, true)
				}
				panic(r)
			}
			err := &PanicError{Value: r, Stack: debug.Stack()}
			s.fail(err)
			if s.obs != nil {
				s.obs.TaskFinished(s.ctx, time.Since(start), err, true)
			}
		}
	}()

	if s.obs != nil {
		start = time.Now()
		s.obs.TaskStarted(s.ctx)
	}

	err := fn(s.ctx)
	if err != nil {
		s.fail(err)
	}
	if s.obs != nil {
		s.obs.TaskFinished(s.ctx, time.Since(start), err, false)
	}
}

func (s *Scope) Cancel(err error) {
	s.mu.Lock()
	wasCanceled := s.canceled
	s.canceled = true
	if s.firstErr == nil && err != nil {
		s.firstErr = err
	}
	cause := s.firstErr
	s.mu.Unlock()

	s.cancel()
	if !wasCanceled && s.obs != nil {
		s.obs.ScopeCancelled(s.ctx, cause)
	}
}

// Wait joins every task and returns the first recorded error. The scope's
// context is released afterwards, so Wait must be the last call on s.
func (s *Scope) Wait() error {
	var start time.Time
	if s.obs != nil {
		start = time.Now()
	}
	s.wg.Wait()
	if s.obs != nil {
		s.obs.ScopeJoined(s.ctx, time.Since(start))
	}
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstErr
}

func (s *Scope) fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.firstErr == nil {
		s.firstErr = err
	}
	shouldCancel := s.policy == FailFast
	cause := s.firstErr
	s.mu.Unlock()
	if shouldCancel {
		s.Cancel(cause)
	}
}

// Child derives a scope cancelled with s. Options not overridden are
// inherited, except the concurrency cap: the child is bounded only by its own options.
func (s *Scope) Child(policy Policy, optFns ...Option) *Scope {
	childOpts := s.opts
	childOpts.MaxConcurrency = 0
	for _, fn := range optFns {
		fn(&childOpts)
	}
	return newScope(s.ctx, policy, childOpts)
}
