package batch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration reports a run rejected before any batch started.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrWorkerFailure reports a batch that failed or panicked; the run is aborted.
	ErrWorkerFailure = errors.New("worker failure")
	// ErrAggregation reports a batch result that was lost or counted twice.
	ErrAggregation = errors.New("aggregation failure")
)

// WorkerError ties a failure to the batch that produced it.
type WorkerError struct {
	Index int
	Err   error
}

// NewWorkerError wraps err for batch index. A nil err yields nil.
func NewWorkerError(index int, err error) error {
	if err == nil {
		return nil
	}
	var we *WorkerError
	if errors.As(err, &we) {
		return err
	}
	return &WorkerError{Index: index, Err: err}
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("%v: batch %d: %v", ErrWorkerFailure, e.Index, e.Err)
}

func (e *WorkerError) Unwrap() error { return e.Err }

// Is makes every WorkerError match ErrWorkerFailure.
func (e *WorkerError) Is(target error) bool { return target == ErrWorkerFailure }

// Invalidf builds an ErrInvalidConfiguration with context.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
