// Package kernel holds the pure workload evaluated for every batch: counting
// primes by 6k±1 trial division.
package kernel

import (
	"context"
	"fmt"

	"github.com/NetPo4ki/primescope/batch"
)

// Func evaluates one batch and returns its partial result.
type Func func(ctx context.Context, b batch.Batch) (int64, error)

// IsPrime reports whether n is prime.
func IsPrime(n int64) bool {
	if n <= 1 {
		return false
	}
	if n == 2 || n == 3 {
		return true
	}
	if n%2 == 0 || n%3 == 0 {
		return false
	}
	for i := int64(5); i <= n/i; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}

// Count returns the number of primes in [b.Start, b.End].
func Count(b batch.Batch) int64 {
	var c int64
	if b.End < b.Start {
		return 0
	}
	for n := b.Start; ; n++ {
		if IsPrime(n) {
			c++
		}
		if n == b.End {
			break
		}
	}
	return c
}

// Primes is the default Func. It never fails.
func Primes(_ context.Context, b batch.Batch) (int64, error) {
	return Count(b), nil
}

// Sequential computes the reference total on the calling goroutine.
func Sequential(ctx context.Context, p batch.Partition, k Func) (int64, error) {
	if k == nil {
		k = Primes
	}
	var total int64
	for b := range p.Batches() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		c, err := k(ctx, b)
		if err != nil {
			return 0, batch.NewWorkerError(b.Index, err)
		}
		total += c
	}
	return total, nil
}

// FailOn wraps k so that batch index fails with err (or a generic error
// when err is nil). Every other batch is delegated to k.
func FailOn(k Func, index int, err error) Func {
	if k == nil {
		k = Primes
	}
	if err == nil {
		err = fmt.Errorf("injected fault on batch %d", index)
	}
	return func(ctx context.Context, b batch.Batch) (int64, error) {
		if b.Index == index {
			return 0, err
		}
		return k(ctx, b)
	}
}
