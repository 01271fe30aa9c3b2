package knapsack

// Branch-and-bound.
//
// Items are sorted by descending density (ties by original index). A DFS
// walks include/exclude decisions in that order. At every inner node:
//
//  1. UpperBound (LP relaxation) and LowerBound (greedy completion) are
//     computed for the node.
//  2. The global lower bound is raised to LowerBound if it improved. The
//     greedy completion that achieves it is recorded as the incumbent, so
//     the bound is always backed by a feasible selection.
//  3. If UpperBound <= global lower bound the subtree is pruned.
//  4. The include branch is explored first when the item fits, then the
//     exclude branch.
//
// Leaves offer their objective to the incumbent as well. The answer is the
// incumbent, scattered back to original index order.
//
// The incumbent is owned by one SolveBnB call. The lower bound is an atomic
// that only ever grows, so pruning decisions read it without locking; the
// selection behind it is swapped under a mutex.

import (
	"context"
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// deadlineMask sets how often the search polls its context (every 4096 nodes).
const deadlineMask = 4095

// BnBOptions tunes SolveBnB.
type BnBOptions struct {
	// Workers > 1 expands the tree to a shallow frontier and explores the
	// frontier subtrees concurrently with a shared incumbent.
	Workers int

	// OnImprove, if set, is called whenever the incumbent improves. It may
	// be called from several goroutines when Workers > 1.
	OnImprove func(objective int64)
}

// SearchStats summarizes a branch-and-bound run.
type SearchStats struct {
	Nodes        int64 // nodes visited
	Pruned       int64 // subtrees cut by the bound test
	Leaves       int64 // complete assignments reached
	Improvements int64 // incumbent updates
	BestLeaf     int64 // best objective found at a leaf; pruning may leave it below the optimum
}

// incumbent is the shared best-known state of one search.
type incumbent struct {
	lower     atomic.Int64 // global lower bound; monotonically non-decreasing
	bestLeaf  atomic.Int64 // best complete objective (best_so_far)
	mu        sync.Mutex
	sel       []uint8 // density-order selection achieving lower
	onImprove func(int64)

	nodes, pruned, leaves, improvements atomic.Int64
}

func newIncumbent(n int, onImprove func(int64)) *incumbent {
	// Lower bound 0 is achieved by the empty selection.
	return &incumbent{sel: make([]uint8, n), onImprove: onImprove}
}

// offer raises the incumbent to value if it improves on it. fill writes the
// selection achieving value and runs under the lock.
func (inc *incumbent) offer(value int64, fill func(dst []uint8)) {
	if value <= inc.lower.Load() {
		return
	}
	inc.mu.Lock()
	if value <= inc.lower.Load() {
		inc.mu.Unlock()
		return
	}
	fill(inc.sel)
	inc.lower.Store(value)
	inc.mu.Unlock()

	inc.improvements.Add(1)
	if inc.onImprove != nil {
		inc.onImprove(value)
	}
}

// raiseLeaf records a complete objective as best_so_far.
func (inc *incumbent) raiseLeaf(value int64) {
	for {
		cur := inc.bestLeaf.Load()
		if value <= cur || inc.bestLeaf.CompareAndSwap(cur, value) {
			return
		}
	}
}

func (inc *incumbent) stats() SearchStats {
	return SearchStats{
		Nodes:        inc.nodes.Load(),
		Pruned:       inc.pruned.Load(),
		Leaves:       inc.leaves.Load(),
		Improvements: inc.improvements.Load(),
		BestLeaf:     inc.bestLeaf.Load(),
	}
}

// frontierNode is an unexplored subtree root handed to a worker.
type frontierNode struct {
	depth        int
	capacityLeft int64
	objective    int64
	prefix       []uint8
}

// bnbEngine holds the per-goroutine search state. The path slice is a
// backtracking buffer: path[:depth] is the sequence so far.
type bnbEngine struct {
	ctx   context.Context
	items []Item
	n     int
	path  []uint8
	inc   *incumbent
	steps int
	err   error

	// split > 0 stops descent at that depth and queues the node instead.
	split    int
	frontier []frontierNode
}

func newEngine(ctx context.Context, items []Item, inc *incumbent) *bnbEngine {
	return &bnbEngine{
		ctx:   ctx,
		items: items,
		n:     len(items),
		path:  make([]uint8, len(items)),
		inc:   inc,
	}
}

// interrupted polls the context every deadlineMask+1 nodes.
func (e *bnbEngine) interrupted() bool {
	if e.err != nil {
		return true
	}
	e.steps++
	if e.steps&deadlineMask != 0 {
		return false
	}
	if err := e.ctx.Err(); err != nil {
		e.err = err
		return true
	}
	return false
}

// step explores the subtree below path[:depth]. Results flow only through
// the incumbent.
func (e *bnbEngine) step(depth int, capacityLeft, objective int64) {
	if e.interrupted() {
		return
	}
	e.inc.nodes.Add(1)

	if depth == e.n {
		e.inc.leaves.Add(1)
		e.inc.raiseLeaf(objective)
		e.inc.offer(objective, func(dst []uint8) { copy(dst, e.path) })
		return
	}

	if e.split > 0 && depth == e.split {
		e.frontier = append(e.frontier, frontierNode{
			depth:        depth,
			capacityLeft: capacityLeft,
			objective:    objective,
			prefix:       append([]uint8(nil), e.path[:depth]...),
		})
		return
	}

	upper := UpperBound(depth, e.items, capacityLeft, objective)
	if lower := LowerBound(depth, e.items, capacityLeft, objective); lower > e.inc.lower.Load() {
		e.inc.offer(lower, func(dst []uint8) {
			copy(dst[:depth], e.path[:depth])
			greedyCompletion(depth, e.items, capacityLeft, objective, dst)
		})
	}

	if upper <= float64(e.inc.lower.Load()) {
		e.inc.pruned.Add(1)
		return
	}

	it := e.items[depth]
	if capacityLeft-it.Weight >= 0 {
		e.path[depth] = 1
		e.step(depth+1, capacityLeft-it.Weight, objective+it.Value)
	}
	e.path[depth] = 0
	e.step(depth+1, capacityLeft, objective)
}

// splitDepth picks a frontier depth that yields a few subtrees per worker.
func splitDepth(workers, n int) int {
	d := bits.Len(uint(workers-1)) + 2
	return min(d, n)
}

// SolveBnB solves p exactly by branch-and-bound.
//
// The returned selection is indexed by original item order. Under ties the
// selection is deterministic for Workers <= 1; the objective is always the
// optimum.
//
// Errors: validation sentinels, or ErrSearchInterrupted (wrapping the
// context error) when ctx is done before the search finishes.
//
// Complexity: exponential in the worst case; O(N) work per node and O(N)
// memory per worker.
func SolveBnB(ctx context.Context, p *Problem, opts BnBOptions) (Solution, SearchStats, error) {
	if err := p.Validate(); err != nil {
		return Solution{}, SearchStats{}, err
	}
	if err := ctx.Err(); err != nil {
		return Solution{}, SearchStats{}, fmt.Errorf("%w: %w", ErrSearchInterrupted, err)
	}

	items := SortByDensity(p.Items)
	inc := newIncumbent(len(items), opts.OnImprove)

	var err error
	if opts.Workers > 1 && len(items) > 1 {
		err = searchParallel(ctx, items, p.Capacity, inc, opts.Workers)
	} else {
		e := newEngine(ctx, items, inc)
		e.step(0, p.Capacity, 0)
		err = e.err
	}
	stats := inc.stats()
	if err != nil {
		return Solution{}, stats, fmt.Errorf("%w: %w", ErrSearchInterrupted, err)
	}

	sol := newSolution(len(items))
	sol.Objective = inc.lower.Load()
	for i, it := range items {
		sol.Selection[it.Index] = inc.sel[i]
	}
	return sol, stats, nil
}

// searchParallel expands the tree down to splitDepth and explores the
// resulting subtrees on a bounded errgroup.
func searchParallel(ctx context.Context, items []Item, capacity int64, inc *incumbent, workers int) error {
	root := newEngine(ctx, items, inc)
	root.split = splitDepth(workers, len(items))
	root.step(0, capacity, 0)
	if root.err != nil {
		return root.err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, node := range root.frontier {
		g.Go(func() error {
			e := newEngine(gctx, items, inc)
			copy(e.path, node.prefix)
			e.step(node.depth, node.capacityLeft, node.objective)
			return e.err
		})
	}
	return g.Wait()
}
