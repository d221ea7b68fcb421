package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetPo4ki/primescope/batch"
)

func TestCollectorsFollowEvents(t *testing.T) {
	t.Parallel()
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	o := m.For("pipeline")
	ctx := context.Background()
	b := batch.Batch{Index: 0, Start: 1, End: 10}

	o.BatchStarted(ctx, b)
	o.BatchStarted(ctx, b)
	assert.InDelta(t, 2, testutil.ToFloat64(m.batchesInFlight.WithLabelValues("pipeline")), 0)
	o.BatchFinished(ctx, b, 4, time.Millisecond, nil)
	o.BatchFinished(ctx, b, 0, time.Millisecond, errors.New("boom"))
	assert.InDelta(t, 0, testutil.ToFloat64(m.batchesInFlight.WithLabelValues("pipeline")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.primesFound.WithLabelValues("pipeline")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.batchesFinished.WithLabelValues("pipeline", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.batchesFinished.WithLabelValues("pipeline", "error")), 0)

	o.TaskStarted(ctx)
	o.TaskFinished(ctx, time.Millisecond, errors.New("p"), true)
	o.TaskFinished(ctx, time.Millisecond, context.Canceled, false)
	assert.InDelta(t, 1, testutil.ToFloat64(m.tasksFinished.WithLabelValues("pipeline", "panic")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.tasksFinished.WithLabelValues("pipeline", "cancelled")), 0)

	snap := o.GetSnapshot()
	assert.Equal(t, int64(2), snap.PeakInFlight)
	assert.Equal(t, int64(1), snap.TasksPanicked)
	assert.Equal(t, 2*time.Millisecond, snap.BatchDurSum)
}
