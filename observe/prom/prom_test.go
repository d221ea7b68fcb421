package prom_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/NetPo4ki/primescope/batch"
	"github.com/NetPo4ki/primescope/kernel"
	"github.com/NetPo4ki/primescope/observe/prom"
	"github.com/NetPo4ki/primescope/scope"
	"github.com/NetPo4ki/primescope/strategy"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	_ scope.Observer         = (*prom.Observer)(nil)
	_ strategy.BatchObserver = (*prom.Observer)(nil)
)

func TestObserverRecordsRun(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m, err := prom.New(reg)
	require.NoError(t, err)

	obs := m.For(string(strategy.ChannelWorkers))
	total, err := strategy.Run(context.Background(), strategy.ChannelWorkers, 10_000, 500, 2,
		strategy.WithObserver(obs), strategy.WithScopeObserver(obs))
	require.NoError(t, err)
	assert.Equal(t, int64(1229), total)

	snap := obs.GetSnapshot()
	assert.Equal(t, int64(20), snap.BatchesStarted)
	assert.Equal(t, int64(20), snap.BatchesFinished)
	assert.Zero(t, snap.BatchesFailed)
	assert.Equal(t, total, snap.Primes)
	assert.LessOrEqual(t, snap.PeakInFlight, int64(2))
	assert.Equal(t, int64(1), snap.ScopesCreated)
	assert.Equal(t, int64(2), snap.TasksStarted)
	assert.Equal(t, int64(2), snap.TasksFinished)

	n, err := testutil.GatherAndCount(reg, "primescope_batches_started_total", "primescope_primes_found_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestObserverRecordsFailure(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m, err := prom.New(reg)
	require.NoError(t, err)
	obs := m.For("spawn")
	boom := errors.New("boom")
	_, err = strategy.Run(context.Background(), strategy.Spawn, 1_000, 100, -1,
		strategy.WithKernel(kernel.FailOn(nil, 2, boom)), strategy.WithObserver(obs), strategy.WithScopeObserver(obs))
	require.ErrorIs(t, err, batch.ErrWorkerFailure)

	snap := obs.GetSnapshot()
	assert.Equal(t, int64(1), snap.BatchesFailed)
	assert.Equal(t, int64(1), snap.ScopesCancelled)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	_, err := prom.New(reg)
	require.NoError(t, err)
	_, err = prom.New(reg)
	assert.Error(t, err)
}
