// Package knapsack solves the 0/1 knapsack problem.
//
// Given N items, each with a non-negative integer value and weight, and a
// capacity C, the solvers pick the subset of items with the highest total
// value whose total weight does not exceed C.
//
// # Solvers
//
// Three interchangeable strategies are provided:
//
//   - [SolveDP]: exact dynamic programming over a (C+1)×(N+1) table.
//     O(N·C) time and memory; pseudo-polynomial, so the table size is the
//     limiting factor.
//   - [SolveBnB]: exact depth-first branch-and-bound over include/exclude
//     decisions in value-density order, pruned with a fractional (LP)
//     upper bound against a greedy lower bound. Memory is O(N); time is
//     exponential in the worst case.
//   - [SolveGreedy]: four single-pass fills (weight ascending, weight
//     descending, value descending, density descending) and the best of the
//     four. O(N log N); never better than optimal.
//
// # Method Selection
//
// [Solve] is the orchestrating entry point. It resolves the requested
// [Method] through a [Selector]:
//
//   - MethodBnB and MethodGreedy are always honoured.
//   - MethodDP estimates the table footprint with [EstimateDPMemory]. At or
//     above the memory threshold (default 1 GiB) the caller's [Confirmer] is
//     asked first, unless IgnoreMemoryWarning is set. A declined request
//     yields a [Result] with Aborted set, which is not an error.
//   - MethodAuto runs DP when the table fits under the threshold and BnB
//     otherwise, without prompting.
//
// Unknown method strings passed through [ParseMethod] fall back to
// MethodAuto with a warning.
//
// # Example
//
//	p, _ := knapsack.NewProblem(10, []knapsack.Item{
//	    {Value: 40, Weight: 2}, {Value: 50, Weight: 3},
//	    {Value: 100, Weight: 4}, {Value: 95, Weight: 5},
//	})
//	res, err := knapsack.Solve(ctx, p, knapsack.Options{Method: knapsack.MethodAuto})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Solution.Objective) // 195
//
// All solvers return selections indexed by the original item order,
// regardless of any internal reordering.
package knapsack
