package knapsack

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Sentinel errors returned by problem validation and the solvers.
var (
	// ErrNegativeCapacity is returned when a problem has capacity < 0.
	ErrNegativeCapacity = errors.New("knapsack: capacity must be non-negative")

	// ErrNegativeWeight is returned when an item has weight < 0.
	ErrNegativeWeight = errors.New("knapsack: item weight must be non-negative")

	// ErrNegativeValue is returned when an item has value < 0.
	ErrNegativeValue = errors.New("knapsack: item value must be non-negative")

	// ErrOverflow is returned when the total value or the total weight of
	// the items does not fit in an int64.
	ErrOverflow = errors.New("knapsack: item totals overflow int64")

	// ErrIndexMismatch is returned when items[i].Index != i.
	ErrIndexMismatch = errors.New("knapsack: item index does not match its position")

	// ErrTableTooLarge is returned by SolveDP when the table cannot be
	// addressed on this platform.
	ErrTableTooLarge = errors.New("knapsack: dynamic programming table too large")

	// ErrSearchInterrupted is returned by SolveBnB when its context is done
	// before the search completes.
	ErrSearchInterrupted = errors.New("knapsack: branch-and-bound search interrupted")

	// ErrInfeasible is returned by Solution.Verify when a selection is
	// overweight or its objective does not match the selected values.
	ErrInfeasible = errors.New("knapsack: solution violates problem constraints")
)

// Item is a single candidate for the knapsack. Index is the item's position
// in the original input and survives every reordering done by the solvers.
type Item struct {
	Index  int   `json:"index"`
	Value  int64 `json:"value"`
	Weight int64 `json:"weight"`
}

// Density returns Value/Weight. Zero-weight items are worth +Inf when they
// carry value and 0 otherwise.
func (it Item) Density() float64 {
	if it.Weight == 0 {
		if it.Value > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return float64(it.Value) / float64(it.Weight)
}

// Problem is a knapsack instance. Items are immutable once the problem is
// built; solvers copy before reordering.
type Problem struct {
	Capacity int64  `json:"capacity"`
	Items    []Item `json:"items"`
}

// NewProblem builds a validated problem from items given in input order.
// Each item's Index is overwritten with its position.
func NewProblem(capacity int64, items []Item) (*Problem, error) {
	own := make([]Item, len(items))
	for i, it := range items {
		it.Index = i
		own[i] = it
	}
	p := &Problem{Capacity: capacity, Items: own}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the problem invariants: non-negative capacity, values and
// weights, items[i].Index == i, and item totals that fit in an int64. The
// solvers add values and weights without further checks.
func (p *Problem) Validate() error {
	if p.Capacity < 0 {
		return ErrNegativeCapacity
	}
	var value, weight uint64
	for i, it := range p.Items {
		if it.Index != i {
			return fmt.Errorf("item %d: %w (got %d)", i, ErrIndexMismatch, it.Index)
		}
		if it.Weight < 0 {
			return fmt.Errorf("item %d: %w", i, ErrNegativeWeight)
		}
		if it.Value < 0 {
			return fmt.Errorf("item %d: %w", i, ErrNegativeValue)
		}
		value += uint64(it.Value)
		weight += uint64(it.Weight)
		if value > math.MaxInt64 {
			return fmt.Errorf("item %d: %w: total value", i, ErrOverflow)
		}
		if weight > math.MaxInt64 {
			return fmt.Errorf("item %d: %w: total weight", i, ErrOverflow)
		}
	}
	return nil
}

// ItemCount returns the number of items.
func (p *Problem) ItemCount() int { return len(p.Items) }

// TotalWeight returns the weight of all items together.
func (p *Problem) TotalWeight() int64 {
	var w int64
	for _, it := range p.Items {
		w += it.Weight
	}
	return w
}

// Solution is a selection vector in original item order plus its objective.
type Solution struct {
	Selection []uint8 `json:"selection"`
	Objective int64   `json:"objective"`
}

// newSolution returns an empty (all-zero) solution for n items.
func newSolution(n int) Solution {
	return Solution{Selection: make([]uint8, n)}
}

// Weight returns the total weight of the selected items of p.
func (s Solution) Weight(p *Problem) int64 {
	var w int64
	for i, x := range s.Selection {
		if x == 1 {
			w += p.Items[i].Weight
		}
	}
	return w
}

// Selected returns the original indices of the selected items.
func (s Solution) Selected() []int {
	var out []int
	for i, x := range s.Selection {
		if x == 1 {
			out = append(out, i)
		}
	}
	return out
}

// Verify checks that s is feasible for p and that its objective equals the
// sum of the selected values. An invalid p is reported as is.
func (s Solution) Verify(p *Problem) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(s.Selection) != len(p.Items) {
		return fmt.Errorf("%w: selection has %d entries for %d items", ErrInfeasible, len(s.Selection), len(p.Items))
	}
	var w, v int64
	for i, x := range s.Selection {
		switch x {
		case 0:
		case 1:
			w += p.Items[i].Weight
			v += p.Items[i].Value
		default:
			return fmt.Errorf("%w: selection[%d] = %d", ErrInfeasible, i, x)
		}
	}
	if w > p.Capacity {
		return fmt.Errorf("%w: weight %d exceeds capacity %d", ErrInfeasible, w, p.Capacity)
	}
	if v != s.Objective {
		return fmt.Errorf("%w: objective %d, selected value %d", ErrInfeasible, s.Objective, v)
	}
	return nil
}

// Equal reports whether two solutions have the same objective and selection.
func (s Solution) Equal(o Solution) bool {
	return s.Objective == o.Objective && slices.Equal(s.Selection, o.Selection)
}
