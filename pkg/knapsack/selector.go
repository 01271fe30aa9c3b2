package knapsack

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// Method names a solving strategy.
type Method string

const (
	MethodDP     Method = "dp"
	MethodBnB    Method = "bnb"
	MethodGreedy Method = "greedy"
	MethodAuto   Method = "auto"
)

// DefaultMemoryThreshold is the DP table size (1 GiB) at which a DP request
// needs confirmation and auto selection switches to branch-and-bound.
const DefaultMemoryThreshold uint64 = 1 << 30

// Methods lists the accepted method names.
var Methods = []Method{MethodDP, MethodBnB, MethodGreedy, MethodAuto}

// String returns the method name.
func (m Method) String() string { return string(m) }

// Valid reports whether m is one of the known methods.
func (m Method) Valid() bool {
	switch m {
	case MethodDP, MethodBnB, MethodGreedy, MethodAuto:
		return true
	}
	return false
}

// Description returns a human-readable label for the method.
func (m Method) Description() string {
	switch m {
	case MethodDP:
		return "Dynamic Programming"
	case MethodBnB:
		return "Branch and Bound"
	case MethodGreedy:
		return "Greedy Algorithm"
	case MethodAuto:
		return "Automatic"
	}
	return "Unknown"
}

// ParseMethod maps a user-supplied name to a Method. The empty string is
// MethodAuto. Unknown names also yield MethodAuto with ok=false so callers
// can warn.
func ParseMethod(s string) (m Method, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MethodAuto, true
	}
	m = Method(s)
	if !m.Valid() {
		return MethodAuto, false
	}
	return m, true
}

// EstimateDPMemory returns the DP table footprint in bytes,
// (n+1)·(capacity+1)·8, saturating at math.MaxUint64.
func EstimateDPMemory(n int, capacity int64) uint64 {
	if n < 0 || capacity < 0 {
		return 0
	}
	hi, cells := bits.Mul64(uint64(n)+1, uint64(capacity)+1)
	if hi != 0 {
		return math.MaxUint64
	}
	hi, bytes := bits.Mul64(cells, cellSize)
	if hi != 0 {
		return math.MaxUint64
	}
	return bytes
}

// Confirmer asks whether a large DP solve should proceed.
type Confirmer interface {
	ConfirmMemory(ctx context.Context, estimate, threshold uint64) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, estimate, threshold uint64) (bool, error)

// ConfirmMemory calls f.
func (f ConfirmFunc) ConfirmMemory(ctx context.Context, estimate, threshold uint64) (bool, error) {
	return f(ctx, estimate, threshold)
}

// AlwaysConfirm accepts every request.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, uint64, uint64) (bool, error) { return true, nil })

// NeverConfirm declines every request. It is the default when no Confirmer
// is configured, since a library cannot prompt.
var NeverConfirm Confirmer = ConfirmFunc(func(context.Context, uint64, uint64) (bool, error) { return false, nil })

// Selector turns a requested method into the solver to run.
type Selector struct {
	// Threshold is the DP memory limit in bytes; 0 means DefaultMemoryThreshold.
	Threshold uint64
}

// Decision is the outcome of method selection.
type Decision struct {
	Requested         Method // method as asked for (may be invalid)
	Method            Method // solver to run: dp, bnb or greedy
	EstimatedBytes    uint64 // DP table estimate for this instance
	NeedsConfirmation bool   // DP was requested explicitly above the threshold
	Warning           string // set when the requested method was unknown
}

func (s Selector) threshold() uint64 {
	if s.Threshold == 0 {
		return DefaultMemoryThreshold
	}
	return s.Threshold
}

// Select decides which solver handles an instance of n items and the given
// capacity.
func (s Selector) Select(n int, capacity int64, requested Method, ignoreWarning bool) Decision {
	d := Decision{
		Requested:      requested,
		EstimatedBytes: EstimateDPMemory(n, capacity),
	}
	underLimit := d.EstimatedBytes < s.threshold()

	method := requested
	if method == "" {
		method = MethodAuto
	}
	if !method.Valid() {
		d.Warning = fmt.Sprintf("invalid method %q; automatic method selected", string(requested))
		method = MethodAuto
	}

	switch method {
	case MethodBnB, MethodGreedy:
		d.Method = method
	case MethodDP:
		d.Method = MethodDP
		d.NeedsConfirmation = !ignoreWarning && !underLimit
	default:
		if underLimit {
			d.Method = MethodDP
		} else {
			d.Method = MethodBnB
		}
	}
	return d
}
