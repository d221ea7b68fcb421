package parallel

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sumBody(_ context.Context, item int, local int64) (int64, error) {
	return local + int64(item), nil
}

func zeroLocal() int64 { return 0 }

func TestForLocalThenMerge(t *testing.T) {
	t.Parallel()
	items := make([]int, 1000)
	for i := range items {
		items[i] = i + 1
	}
	for _, workers := range []int{-1, 0, 1, 3, 8, 5000} {
		var total atomic.Int64
		var merges atomic.Int64
		err := For(context.Background(), items, workers, zeroLocal, sumBody, func(local int64) {
			merges.Add(1)
			total.Add(local)
		})
		require.NoError(t, err)
		assert.Equal(t, int64(500500), total.Load(), "workers=%d", workers)
		assert.LessOrEqual(t, merges.Load(), int64(max(workers, 1)), "one merge per worker")
	}
}

func TestForEmpty(t *testing.T) {
	t.Parallel()
	called := false
	err := For(context.Background(), []int{}, 4, zeroLocal, sumBody, func(int64) { called = true })
	require.NoError(t, err)
	assert.False(t, called)
}

func TestForEachLazySequence(t *testing.T) {
	t.Parallel()
	produced := atomic.Int64{}
	seq := func(yield func(int) bool) {
		for i := 1; i <= 1000; i++ {
			produced.Add(1)
			if !yield(i) {
				return
			}
		}
	}
	var total atomic.Int64
	err := ForEach(context.Background(), iter.Seq[int](seq), 6, zeroLocal, sumBody, func(l int64) { total.Add(l) })
	require.NoError(t, err)
	assert.Equal(t, int64(500500), total.Load())
	assert.Equal(t, int64(1000), produced.Load())
}

func TestForStopsOnError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	items := make([]int, 200)
	for i := range items {
		items[i] = i
	}
	body := func(_ context.Context, item int, local int64) (int64, error) {
		if item == 17 {
			return local, boom
		}
		return local + 1, nil
	}
	err := For(context.Background(), items, 4, zeroLocal, body, nil)
	assert.ErrorIs(t, err, boom)

	err = ForEach(context.Background(), slices.Values(items), 4, zeroLocal, body, nil)
	assert.ErrorIs(t, err, boom)
}

func TestForHonoursCancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := atomic.Int64{}
	body := func(_ context.Context, item int, local int64) (int64, error) {
		ran.Add(1)
		return local, nil
	}
	err := For(ctx, []int{1, 2, 3}, 2, zeroLocal, body, nil)
	assert.ErrorIs(t, err, context.Canceled)
	err = ForEach(ctx, slices.Values([]int{1, 2, 3}), 2, zeroLocal, body, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ran.Load())
}

func TestMapReduce(t *testing.T) {
	t.Parallel()
	square := func(_ context.Context, v int) (int64, error) { return int64(v * v), nil }
	add := func(a, b int64) int64 { return a + b }
	for _, chunk := range []int{0, 1, 7, 1000} {
		got, err := MapReduce(context.Background(), slices.Values([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}), 3, chunk, square, add, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(385), got, "chunk=%d", chunk)
	}

	empty, err := MapReduce(context.Background(), slices.Values([]int{}), 3, 0, square, add, 0)
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestMapReduceError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	mapFn := func(_ context.Context, v int) (int64, error) {
		if v == 50 {
			return 0, boom
		}
		return 1, nil
	}
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	got, err := MapReduce(context.Background(), slices.Values(items), 4, 5, mapFn, func(a, b int64) int64 { return a + b }, 0)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, got)
}
