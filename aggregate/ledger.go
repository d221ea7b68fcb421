package aggregate

import (
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/NetPo4ki/primescope/batch"
)

// Ledger records which batch indices contributed to a total so a run can
// prove every batch was counted exactly once.
type Ledger struct {
	n     int
	words []atomic.Uint64
}

// NewLedger returns a ledger for indices 0..n-1.
func NewLedger(n int) *Ledger {
	return &Ledger{n: n, words: make([]atomic.Uint64, (n+63)/64)}
}

// Mark records index i. Marking an index twice, or one outside the ledger,
// is an ErrAggregation.
func (l *Ledger) Mark(i int) error {
	if i < 0 || i >= l.n {
		return fmt.Errorf("%w: batch %d outside [0, %d)", batch.ErrAggregation, i, l.n)
	}
	w := &l.words[i/64]
	bit := uint64(1) << (uint(i) % 64)
	for {
		old := w.Load()
		if old&bit != 0 {
			return fmt.Errorf("%w: batch %d counted twice", batch.ErrAggregation, i)
		}
		if w.CompareAndSwap(old, old|bit) {
			return nil
		}
	}
}

// Marked returns how many distinct indices have been recorded.
func (l *Ledger) Marked() int {
	c := 0
	for i := range l.words {
		c += bits.OnesCount64(l.words[i].Load())
	}
	return c
}

// Verify returns ErrAggregation naming the first index never marked.
func (l *Ledger) Verify() error {
	if got := l.Marked(); got == l.n {
		return nil
	}
	for i := 0; i < l.n; i++ {
		if l.words[i/64].Load()&(uint64(1)<<(uint(i)%64)) == 0 {
			return fmt.Errorf("%w: batch %d never counted (%d of %d recorded)",
				batch.ErrAggregation, i, l.Marked(), l.n)
		}
	}
	return nil
}
