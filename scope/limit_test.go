package scope

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackMax records the highest number of tasks observed running together.
type trackMax struct {
	cur, max atomic.Int64
}

func (m *trackMax) enter() {
	c := m.cur.Add(1)
	for {
		old := m.max.Load()
		if c <= old || m.max.CompareAndSwap(old, c) {
			return
		}
	}
}

func (m *trackMax) leave() { m.cur.Add(-1) }

func TestMaxConcurrencyBound(t *testing.T) {
	t.Parallel()
	const N = 8
	const M = 50
	s := New(context.Background(), Supervisor, WithMaxConcurrency(N))
	var m trackMax
	for i := 0; i < M; i++ {
		s.Go(func(ctx context.Context) error {
			m.enter()
			defer m.leave()
			select {
			case <-time.After(2 * time.Millisecond):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	require.NoError(t, s.Wait())
	assert.LessOrEqual(t, m.max.Load(), int64(N))
}

func TestLimiterAcquireRespectsCancel(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), FailFast, WithMaxConcurrency(1))
	block := make(chan struct{})
	s.Go(func(_ context.Context) error {
		<-block
		return nil
	})
	ran := atomic.Bool{}
	// blocked on Acquire until the scope is cancelled
	s.Go(func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	time.Sleep(10 * time.Millisecond)
	start := time.Now()
	s.Cancel(context.Canceled)
	close(block)
	_ = s.Wait()
	assert.Less(t, time.Since(start), 300*time.Millisecond, "cancel should abort the permit wait")
	assert.False(t, ran.Load(), "task waiting for a permit must not run after cancel")
}

func TestNewLimiterNonPositive(t *testing.T) {
	t.Parallel()
	assert.Nil(t, newLimiter(0))
	assert.Nil(t, newLimiter(-1))
	assert.NotNil(t, newLimiter(1))
}

func TestChildMaxConcurrencyBound(t *testing.T) {
	t.Parallel()
	parent := New(context.Background(), Supervisor)
	child := parent.Child(Supervisor, WithMaxConcurrency(1))
	var m trackMax
	ch1 := make(chan struct{})
	ch2 := make(chan struct{})
	for _, ch := range []chan struct{}{ch1, ch2} {
		child.Go(func(_ context.Context) error {
			m.enter()
			defer m.leave()
			<-ch
			return nil
		})
	}
	// Let first task start; second should be queued by limiter.
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, m.max.Load(), int64(1))
	// Release both; whichever holds the permit finishes first.
	close(ch1)
	close(ch2)
	require.NoError(t, child.Wait())
	require.NoError(t, parent.Wait())
	assert.Equal(t, int64(1), m.max.Load())
}

func TestChildDoesNotInheritCap(t *testing.T) {
	t.Parallel()
	parent := New(context.Background(), Supervisor, WithMaxConcurrency(1))
	child := parent.Child(Supervisor)
	var m trackMax
	release := make(chan struct{})
	for range 3 {
		child.Go(func(_ context.Context) error {
			m.enter()
			defer m.leave()
			<-release
			return nil
		})
	}
	require.Eventually(t, func() bool { return m.max.Load() == 3 }, time.Second, time.Millisecond)
	close(release)
	require.NoError(t, child.Wait())
	require.NoError(t, parent.Wait())
}
