package knapsack

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// pair is a (value, weight) literal for building test problems.
type pair struct{ v, w int64 }

func mustProblem(t testing.TB, capacity int64, pairs ...pair) *Problem {
	t.Helper()
	items := make([]Item, len(pairs))
	for i, p := range pairs {
		items[i] = Item{Value: p.v, Weight: p.w}
	}
	p, err := NewProblem(capacity, items)
	require.NoError(t, err)
	return p
}

// exampleProblem is the four-item instance with optimum 195 (items 2 and 3).
func exampleProblem(t testing.TB) *Problem {
	return mustProblem(t, 10, pair{40, 2}, pair{50, 3}, pair{100, 4}, pair{95, 5})
}

// randomProblem draws n items with weights in [1, maxW] and values in
// [0, maxV]; capacity is about half the total weight.
func randomProblem(t testing.TB, rng *rand.Rand, n int, maxW, maxV int64) *Problem {
	t.Helper()
	pairs := make([]pair, n)
	var total int64
	for i := range pairs {
		pairs[i] = pair{v: rng.Int64N(maxV + 1), w: 1 + rng.Int64N(maxW)}
		total += pairs[i].w
	}
	return mustProblem(t, total/2, pairs...)
}

// bruteForce enumerates every subset; only for small n.
func bruteForce(p *Problem) int64 {
	n := len(p.Items)
	var best int64
	for mask := 0; mask < 1<<n; mask++ {
		var w, v int64
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				w += p.Items[i].Weight
				v += p.Items[i].Value
			}
		}
		if w <= p.Capacity && v > best {
			best = v
		}
	}
	return best
}

// requireValid asserts feasibility and objective consistency.
func requireValid(t *testing.T, p *Problem, s Solution) {
	t.Helper()
	require.Len(t, s.Selection, len(p.Items))
	require.NoError(t, s.Verify(p))
}
