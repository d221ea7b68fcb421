package scope

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds concurrent tasks within a scope.
type Limiter interface {
	Acquire(ctx context.Context) error
	Release()
}

// semLimiter hands out one weighted permit per task.
type semLimiter struct {
	sem *semaphore.Weighted
}

// newLimiter returns a counting-permit limiter of capacity n, or nil when
// n <= 0 (no limit).
func newLimiter(n int) Limiter {
	if n <= 0 {
		return nil
	}
	return &semLimiter{sem: semaphore.NewWeighted(int64(n))}
}

func (l *semLimiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *semLimiter) Release() {
	l.sem.Release(1)
}
