// Package prom exports scope, task and batch events as Prometheus metrics.
//
// One Metrics value owns the collectors; For returns an observer labelled
// with a strategy id that implements both scope.Observer and
// strategy.BatchObserver and keeps an in-process Snapshot for reporting.
package prom

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NetPo4ki/primescope/batch"
)

const namespace = "primescope"

// Metrics holds the registered collectors.
type Metrics struct {
	batchesStarted  *prometheus.CounterVec
	batchesFinished *prometheus.CounterVec
	batchesInFlight *prometheus.GaugeVec
	batchDuration   *prometheus.HistogramVec
	primesFound     *prometheus.CounterVec

	tasksStarted    *prometheus.CounterVec
	tasksFinished   *prometheus.CounterVec
	scopesCreated   *prometheus.CounterVec
	scopesCancelled *prometheus.CounterVec
	joinWait        *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	strategy := []string{"strategy"}
	m := &Metrics{
		batchesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "batches_started_total",
			Help: "Batches handed to the kernel.",
		}, strategy),
		batchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "batches_finished_total",
			Help: "Batches the kernel returned from, by outcome.",
		}, []string{"strategy", "outcome"}),
		batchesInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "batches_in_flight",
			Help: "Batches currently being evaluated.",
		}, strategy),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "batch_duration_seconds",
			Help:    "Kernel time per batch.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, strategy),
		primesFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "primes_found_total",
			Help: "Sum of successful partial results.",
		}, strategy),
		tasksStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "scope_tasks_started_total",
			Help: "Scope tasks started.",
		}, strategy),
		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "scope_tasks_finished_total",
			Help: "Scope tasks finished, by outcome.",
		}, []string{"strategy", "outcome"}),
		scopesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "scopes_created_total",
			Help: "Scopes created.",
		}, strategy),
		scopesCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "scopes_cancelled_total",
			Help: "Scopes cancelled.",
		}, strategy),
		joinWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "scope_join_wait_seconds",
			Help:    "Time spent in Scope.Wait.",
			Buckets: prometheus.DefBuckets,
		}, strategy),
	}
	for _, c := range []prometheus.Collector{
		m.batchesStarted, m.batchesFinished, m.batchesInFlight, m.batchDuration, m.primesFound,
		m.tasksStarted, m.tasksFinished, m.scopesCreated, m.scopesCancelled, m.joinWait,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// For returns an observer whose events carry the given strategy label.
func (m *Metrics) For(strategy string) *Observer {
	return &Observer{m: m, label: strategy}
}

// Observer records events for one strategy label.
type Observer struct {
	m     *Metrics
	label string

	batchesStarted  atomic.Int64
	batchesFinished atomic.Int64
	batchesFailed   atomic.Int64
	activeBatches   atomic.Int64
	peakBatches     atomic.Int64
	batchDurSumNs   atomic.Int64
	primes          atomic.Int64

	tasksStarted    atomic.Int64
	tasksFinished   atomic.Int64
	tasksPanicked   atomic.Int64
	scopesCreated   atomic.Int64
	scopesCancelled atomic.Int64
	joinWaitSumNs   atomic.Int64
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

// BatchStarted records a batch entering the kernel.
func (o *Observer) BatchStarted(_ context.Context, _ batch.Batch) {
	o.batchesStarted.Add(1)
	c := o.activeBatches.Add(1)
	for {
		p := o.peakBatches.Load()
		if c <= p || o.peakBatches.CompareAndSwap(p, c) {
			break
		}
	}
	o.m.batchesStarted.WithLabelValues(o.label).Inc()
	o.m.batchesInFlight.WithLabelValues(o.label).Inc()
}

// BatchFinished records a batch leaving the kernel.
func (o *Observer) BatchFinished(_ context.Context, _ batch.Batch, count int64, dur time.Duration, err error) {
	o.activeBatches.Add(-1)
	o.batchesFinished.Add(1)
	o.batchDurSumNs.Add(dur.Nanoseconds())
	o.m.batchesInFlight.WithLabelValues(o.label).Dec()
	o.m.batchesFinished.WithLabelValues(o.label, outcome(err)).Inc()
	o.m.batchDuration.WithLabelValues(o.label).Observe(dur.Seconds())
	if err != nil {
		o.batchesFailed.Add(1)
		return
	}
	o.primes.Add(count)
	o.m.primesFound.WithLabelValues(o.label).Add(float64(count))
}

// ScopeCreated records scope creation.
func (o *Observer) ScopeCreated(_ context.Context) {
	o.scopesCreated.Add(1)
	o.m.scopesCreated.WithLabelValues(o.label).Inc()
}

// ScopeCancelled records scope cancellation.
func (o *Observer) ScopeCancelled(_ context.Context, _ error) {
	o.scopesCancelled.Add(1)
	o.m.scopesCancelled.WithLabelValues(o.label).Inc()
}

// ScopeJoined records a join and accumulates wait time.
func (o *Observer) ScopeJoined(_ context.Context, wait time.Duration) {
	o.joinWaitSumNs.Add(wait.Nanoseconds())
	o.m.joinWait.WithLabelValues(o.label).Observe(wait.Seconds())
}

// TaskStarted increments the started counter.
func (o *Observer) TaskStarted(_ context.Context) {
	o.tasksStarted.Add(1)
	o.m.tasksStarted.WithLabelValues(o.label).Inc()
}

// TaskFinished tracks task outcome, including panics.
func (o *Observer) TaskFinished(_ context.Context, _ time.Duration, err error, panicked bool) {
	o.tasksFinished.Add(1)
	res := outcome(err)
	if panicked {
		o.tasksPanicked.Add(1)
		res = "panic"
	}
	o.m.tasksFinished.WithLabelValues(o.label, res).Inc()
}

// Snapshot is a copy of one observer's counters.
type Snapshot struct {
	Strategy        string
	BatchesStarted  int64
	BatchesFinished int64
	BatchesFailed   int64
	PeakInFlight    int64
	BatchDurSum     time.Duration
	Primes          int64
	TasksStarted    int64
	TasksFinished   int64
	TasksPanicked   int64
	ScopesCreated   int64
	ScopesCancelled int64
	JoinWaitSum     time.Duration
}

// GetSnapshot returns the current counters.
func (o *Observer) GetSnapshot() Snapshot {
	return Snapshot{
		Strategy:        o.label,
		BatchesStarted:  o.batchesStarted.Load(),
		BatchesFinished: o.batchesFinished.Load(),
		BatchesFailed:   o.batchesFailed.Load(),
		PeakInFlight:    o.peakBatches.Load(),
		BatchDurSum:     time.Duration(o.batchDurSumNs.Load()),
		Primes:          o.primes.Load(),
		TasksStarted:    o.tasksStarted.Load(),
		TasksFinished:   o.tasksFinished.Load(),
		TasksPanicked:   o.tasksPanicked.Load(),
		ScopesCreated:   o.scopesCreated.Load(),
		ScopesCancelled: o.scopesCancelled.Load(),
		JoinWaitSum:     time.Duration(o.joinWaitSumNs.Load()),
	}
}
