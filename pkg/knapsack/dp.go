package knapsack

import (
	"context"
	"math"
	"math/bits"
)

// cellSize is the footprint of one DP table cell (an int64).
const cellSize = 8

// dpTable is the (capacity+1)×(n+1) table stored row-major by capacity:
// cell (w, k) holds the best value using the first k items with capacity w.
type dpTable struct {
	cols  int // n+1
	cells []int64
}

func (t *dpTable) at(w, k int) int64 { return t.cells[w*t.cols+k] }

// tableCells returns (n+1)*(capacity+1), or ok=false if it overflows int.
func tableCells(n int, capacity int64) (int, bool) {
	hi, lo := bits.Mul64(uint64(n)+1, uint64(capacity)+1)
	if hi != 0 || lo > math.MaxInt {
		return 0, false
	}
	return int(lo), true
}

// SolveDP solves p exactly by dynamic programming.
//
// The table T[w][k] (w in 0..C, k in 0..N) follows
//
//	T[w][0] = 0
//	T[w][k] = max(T[w][k-1], T[w-wk][k-1] + vk)   if wk <= w
//	T[w][k] = T[w][k-1]                             otherwise
//
// and the selection is recovered by walking k from N down to 1, taking item
// k-1 whenever T[w][k] != T[w][k-1].
//
// Complexity: O(N·C) time and memory. The context is polled once per
// capacity row.
func SolveDP(ctx context.Context, p *Problem) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{}, err
	}
	n := len(p.Items)
	capacity := p.Capacity
	cells, ok := tableCells(n, capacity)
	if !ok {
		return Solution{}, ErrTableTooLarge
	}

	t := &dpTable{cols: n + 1, cells: make([]int64, cells)}
	rows := int(capacity) + 1

	for w := 0; w < rows; w++ {
		if err := ctx.Err(); err != nil {
			return Solution{}, err
		}
		row := t.cells[w*t.cols : (w+1)*t.cols]
		for k := 1; k <= n; k++ {
			it := p.Items[k-1]
			skip := row[k-1]
			if it.Weight <= int64(w) {
				take := t.at(w-int(it.Weight), k-1) + it.Value
				if take >= skip {
					row[k] = take
					continue
				}
			}
			row[k] = skip
		}
	}

	sol := newSolution(n)
	sol.Objective = t.at(rows-1, n)

	w := rows - 1
	for k := n; k > 0; k-- {
		if t.at(w, k) != t.at(w, k-1) {
			sol.Selection[k-1] = 1
			w -= int(p.Items[k-1].Weight)
		}
	}
	return sol, nil
}
