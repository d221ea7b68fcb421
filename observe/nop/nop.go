// Package nop provides an observer that discards every scope, task and
// batch event. Strategies use it when no observer is configured.
package nop

import (
	"context"
	"time"

	"github.com/NetPo4ki/primescope/batch"
)

// Observer is a no-op implementation of scope.Observer and
// strategy.BatchObserver.
type Observer struct{}

// New returns a no-op observer.
func New() *Observer { return &Observer{} }

func (*Observer) ScopeCreated(context.Context)                             {}
func (*Observer) ScopeCancelled(context.Context, error)                    {}
func (*Observer) ScopeJoined(context.Context, time.Duration)               {}
func (*Observer) TaskStarted(context.Context)                              {}
func (*Observer) TaskFinished(context.Context, time.Duration, error, bool) {}
func (*Observer) BatchStarted(context.Context, batch.Batch)                {}
func (*Observer) BatchFinished(context.Context, batch.Batch, int64, time.Duration, error) {
}
