// Package batch partitions the inclusive range [1, N] into fixed-size
// batches and defines the errors shared by every execution strategy.
package batch
