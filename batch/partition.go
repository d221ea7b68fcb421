package batch

import "iter"

// Batch describes one contiguous sub-range [Start, End] of the input.
type Batch struct {
	Index int
	Start int64
	End   int64
}

// Len returns the number of integers covered by b.
func (b Batch) Len() int64 { return b.End - b.Start + 1 }

// Partition maps batch indices to descriptors. The zero value is empty.
// A Partition is immutable and safe for concurrent use.
type Partition struct {
	n     int64
	size  int64
	count int
}

// New validates n and size and returns the partition of [1, n].
func New(n, size int64) (Partition, error) {
	if n <= 0 {
		return Partition{}, Invalidf("range upper bound must be > 0, got %d", n)
	}
	if size <= 0 {
		return Partition{}, Invalidf("batch size must be > 0, got %d", size)
	}
	count := (n-1)/size + 1
	if count > int64(maxInt) {
		return Partition{}, Invalidf("batch count %d overflows int", count)
	}
	return Partition{n: n, size: size, count: int(count)}, nil
}

const maxInt = int(^uint(0) >> 1)

// N returns the inclusive upper bound of the range.
func (p Partition) N() int64 { return p.n }

// Size returns the configured batch size.
func (p Partition) Size() int64 { return p.size }

// Count returns ceil(N / Size).
func (p Partition) Count() int { return p.count }

// At returns the descriptor for batch i. It panics if i is out of range.
func (p Partition) At(i int) Batch {
	if i < 0 || i >= p.count {
		panic("batch: index out of range")
	}
	start := int64(i)*p.size + 1
	end := p.n
	if p.n-start >= p.size {
		end = start + p.size - 1
	}
	return Batch{Index: i, Start: start, End: end}
}

// Indices yields 0..Count()-1. The sequence is restartable and allocates
// nothing up front.
func (p Partition) Indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < p.count; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

// Batches yields every descriptor in index order.
func (p Partition) Batches() iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		for i := range p.Indices() {
			if !yield(p.At(i)) {
				return
			}
		}
	}
}
