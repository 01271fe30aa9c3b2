// Package pkg provides the libraries behind the knapsack solver.
//
// # Overview
//
// The pkg directory is organized into four areas:
//
//  1. [knapsack] - Solvers (dynamic programming, branch and bound, greedy)
//     and the method selector
//  2. [io] - The text problem/solution format and its JSON forms
//  3. [cache], [observability] - Infrastructure (solution caching, metrics hooks)
//  4. [pipeline], [api] - Orchestration (read → solve → write, batches, HTTP)
//
// # Architecture
//
// The typical data flow:
//
//	Problem file / HTTP body
//	         ↓
//	    [io] package (parse and validate)
//	         ↓
//	    [pipeline] package (cache lookup, options, hooks)
//	         ↓
//	    [knapsack] package (select method, solve)
//	         ↓
//	    Solution file / JSON response
//
// # Quick Start
//
//	p, err := io.ImportProblem("data/ks_4_0")
//	if err != nil {
//	    return err
//	}
//	res, err := knapsack.Solve(ctx, p, knapsack.Options{Method: knapsack.MethodAuto})
//	if err != nil {
//	    return err
//	}
//	if res.Aborted {
//	    return nil // declined a large DP table
//	}
//	fmt.Println(res.Solution.Objective)
//
// [knapsack]: github.com/matzehuels/knapsack/pkg/knapsack
// [io]: github.com/matzehuels/knapsack/pkg/io
// [cache]: github.com/matzehuels/knapsack/pkg/cache
// [observability]: github.com/matzehuels/knapsack/pkg/observability
// [pipeline]: github.com/matzehuels/knapsack/pkg/pipeline
// [api]: github.com/matzehuels/knapsack/pkg/api
package pkg
