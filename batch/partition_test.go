package batch

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositive(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct{ n, size int64 }{
		{0, 10}, {-5, 10}, {10, 0}, {10, -1},
	} {
		_, err := New(tc.n, tc.size)
		require.ErrorIs(t, err, ErrInvalidConfiguration, "n=%d size=%d", tc.n, tc.size)
	}
}

func TestPartitionCoversRange(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n, size   int64
		wantCount int
	}{
		{1, 1, 1},
		{1, 100, 1},
		{10, 3, 4},
		{30, 10, 3},
		{100, 7, 15},
		{1000, 1000, 1},
		{1001, 1000, 2},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("n=%d/size=%d", tc.n, tc.size), func(t *testing.T) {
			p, err := New(tc.n, tc.size)
			require.NoError(t, err)
			require.Equal(t, tc.wantCount, p.Count())

			next := int64(1)
			for i := 0; i < p.Count(); i++ {
				b := p.At(i)
				assert.Equal(t, i, b.Index)
				assert.Equal(t, next, b.Start, "gap or overlap before batch %d", i)
				assert.LessOrEqual(t, b.Len(), tc.size)
				assert.Positive(t, b.Len())
				next = b.End + 1
			}
			assert.Equal(t, tc.n, p.At(p.Count()-1).End)
		})
	}
}

func TestIndicesRestartable(t *testing.T) {
	t.Parallel()
	p, err := New(95, 10)
	require.NoError(t, err)

	collect := func() []int {
		var out []int
		for i := range p.Indices() {
			out = append(out, i)
		}
		return out
	}
	first := collect()
	require.Len(t, first, 10)
	assert.Equal(t, first, collect())

	var sum int64
	for b := range p.Batches() {
		sum += b.Len()
	}
	assert.Equal(t, int64(95), sum)
}

func TestHugeBatchSize(t *testing.T) {
	t.Parallel()
	p, err := New(10, math.MaxInt64)
	require.NoError(t, err)
	require.Equal(t, 1, p.Count())
	assert.Equal(t, Batch{Index: 0, Start: 1, End: 10}, p.At(0))

	p, err = New(math.MaxInt64, 1<<62)
	require.NoError(t, err)
	require.Equal(t, 2, p.Count())
	last := p.At(1)
	assert.Equal(t, int64(1<<62+1), last.Start)
	assert.Equal(t, int64(math.MaxInt64), last.End)
	assert.Equal(t, int64(math.MaxInt64), p.At(0).Len()+last.Len())
}

func TestIndicesStopEarly(t *testing.T) {
	t.Parallel()
	p, err := New(100, 1)
	require.NoError(t, err)
	seen := 0
	for range p.Indices() {
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)
}

func TestAtPanicsOutOfRange(t *testing.T) {
	t.Parallel()
	p, err := New(10, 5)
	require.NoError(t, err)
	assert.Panics(t, func() { p.At(2) })
	assert.Panics(t, func() { p.At(-1) })
}

func TestWorkerErrorMatching(t *testing.T) {
	t.Parallel()
	cause := errors.New("disk on fire")
	err := fmt.Errorf("run: %w", NewWorkerError(3, cause))
	assert.ErrorIs(t, err, ErrWorkerFailure)
	assert.ErrorIs(t, err, cause)

	var we *WorkerError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, 3, we.Index)
	assert.Contains(t, err.Error(), "batch 3")

	// Rewrapping keeps the original index.
	again := NewWorkerError(7, err)
	require.ErrorAs(t, again, &we)
	assert.Equal(t, 3, we.Index)
	assert.NoError(t, NewWorkerError(1, nil))
}
