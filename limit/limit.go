// Package limit resolves a configured degree of parallelism into an
// effective worker count.
package limit

import (
	"runtime"
	"strconv"

	"github.com/NetPo4ki/primescope/batch"
)

// Kind tags a Limit.
type Kind int

const (
	// Unbounded imposes no permit. Pool-based strategies size their pool
	// with the hardware default.
	Unbounded Kind = iota
	// HardwareDefault uses one worker per available execution unit.
	HardwareDefault
	// Explicit caps parallelism at a fixed k > 0.
	Explicit
)

// Configured values accepted by Parse besides k > 0.
const (
	UnboundedValue = -1
	HardwareValue  = 0
)

// Limit is a resolved concurrency limit. The zero value is Unbounded.
type Limit struct {
	kind Kind
	k    int
}

// Parse maps -1 to Unbounded, 0 to HardwareDefault and k > 0 to Explicit(k).
func Parse(v int) (Limit, error) {
	switch {
	case v == UnboundedValue:
		return Limit{kind: Unbounded}, nil
	case v == HardwareValue:
		return Limit{kind: HardwareDefault}, nil
	case v > 0:
		return Limit{kind: Explicit, k: v}, nil
	default:
		return Limit{}, batch.Invalidf("concurrency limit must be -1, 0 or > 0, got %d", v)
	}
}

// Of returns Explicit(k). It panics if k <= 0.
func Of(k int) Limit {
	if k <= 0 {
		panic("limit: explicit limit must be > 0")
	}
	return Limit{kind: Explicit, k: k}
}

// None returns the Unbounded limit.
func None() Limit { return Limit{kind: Unbounded} }

// Default returns the HardwareDefault limit.
func Default() Limit { return Limit{kind: HardwareDefault} }

// Hardware returns the number of execution units available to the process.
func Hardware() int { return runtime.GOMAXPROCS(0) }

func (l Limit) Kind() Kind { return l.kind }

// Bounded reports whether a permit cap applies.
func (l Limit) Bounded() bool { return l.kind != Unbounded }

// Workers returns the effective pool size.
func (l Limit) Workers() int {
	if l.kind == Explicit {
		return l.k
	}
	return Hardware()
}

// Value returns the configured integer form of l.
func (l Limit) Value() int {
	switch l.kind {
	case Explicit:
		return l.k
	case HardwareDefault:
		return HardwareValue
	default:
		return UnboundedValue
	}
}

func (l Limit) String() string {
	switch l.kind {
	case Explicit:
		return strconv.Itoa(l.k)
	case HardwareDefault:
		return "hardware(" + strconv.Itoa(Hardware()) + ")"
	default:
		return "unbounded"
	}
}
