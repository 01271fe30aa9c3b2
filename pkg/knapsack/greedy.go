package knapsack

// Fill identifies one greedy ordering. The constant order is also the
// tie-break priority when several fills reach the same value.
type Fill int

const (
	FillWeightAsc Fill = iota
	FillWeightDesc
	FillValueDesc
	FillDensityDesc
)

var fillNames = [...]string{"weight-asc", "weight-desc", "value-desc", "density-desc"}

func (f Fill) String() string {
	if f < 0 || int(f) >= len(fillNames) {
		return "unknown"
	}
	return fillNames[f]
}

// fillOrders maps each fill to its item comparison.
var fillOrders = [...]func(a, b Item) int{
	FillWeightAsc:   byWeightAsc,
	FillWeightDesc:  byWeightDesc,
	FillValueDesc:   byValueDesc,
	FillDensityDesc: byDensityDesc,
}

// GreedyFill runs a single pass over p's items in the given ordering,
// taking every item that still fits and skipping the rest.
func GreedyFill(p *Problem, f Fill) Solution {
	sol := newSolution(len(p.Items))
	left := p.Capacity
	for _, it := range sortedCopy(p.Items, fillOrders[f]) {
		if it.Weight <= left {
			sol.Selection[it.Index] = 1
			sol.Objective += it.Value
			left -= it.Weight
		}
	}
	return sol
}

// GreedyResult holds all four fills and the chosen one.
type GreedyResult struct {
	Fills  [4]Solution
	Chosen Fill
}

// Best returns the chosen fill's solution.
func (r GreedyResult) Best() Solution { return r.Fills[r.Chosen] }

// RunGreedy computes every fill and picks the first, in priority order
// weight-asc > weight-desc > value-desc > density-desc, whose value is
// greater than or equal to all the others.
func RunGreedy(p *Problem) GreedyResult {
	var r GreedyResult
	for f := range r.Fills {
		r.Fills[f] = GreedyFill(p, Fill(f))
	}
	for f := range r.Fills {
		if dominates(r.Fills[:], f) {
			r.Chosen = Fill(f)
			break
		}
	}
	return r
}

func dominates(fills []Solution, f int) bool {
	for _, o := range fills {
		if fills[f].Objective < o.Objective {
			return false
		}
	}
	return true
}

// SolveGreedy returns the best of the four greedy fills. It is fast,
// always feasible and never better than the optimum.
//
// Complexity: O(N log N).
func SolveGreedy(p *Problem) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{}, err
	}
	return RunGreedy(p).Best(), nil
}
