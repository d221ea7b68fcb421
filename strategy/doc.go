// Package strategy runs the prime-counting workload under ten
// interchangeable concurrency-coordination strategies.
//
// Every strategy partitions [1, N] into batches, evaluates each batch exactly
// once with the configured kernel, and returns the same total as a
// sequential count. Batches complete in any order. A failing or panicking
// batch aborts the run: the error wraps batch.ErrWorkerFailure and the total
// is 0. Cancellation is checked before each batch starts; a batch already
// running finishes.
//
// Only the spawn-per-batch strategies can run without a cap. Every
// pool-based strategy sizes its pool with limit.Limit.Workers, which maps
// an unbounded limit to the hardware default.
package strategy
