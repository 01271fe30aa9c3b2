package knapsack

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures Solve.
type Options struct {
	// Method is the requested strategy; empty means MethodAuto.
	Method Method

	// IgnoreMemoryWarning skips confirmation for large DP requests.
	IgnoreMemoryWarning bool

	// MemoryThreshold is the DP table limit in bytes; 0 means
	// DefaultMemoryThreshold.
	MemoryThreshold uint64

	// MaxTableBytes, when positive, is a hard limit on the DP table. A DP
	// run above it fails with ErrTableTooLarge whatever IgnoreMemoryWarning
	// and the Confirmer say.
	MaxTableBytes uint64

	// Confirmer is asked before a DP solve above the threshold. Nil means
	// NeverConfirm.
	Confirmer Confirmer

	// Workers is passed to SolveBnB.
	Workers int

	// Timeout bounds the whole solve when positive.
	Timeout time.Duration

	// Logger receives progress; nil discards.
	Logger *log.Logger
}

// Result is the outcome of Solve. Exactly one of Solution (when Aborted is
// false) or Aborted describes what happened.
type Result struct {
	Solution  Solution
	Aborted   bool
	Requested Method
	Method    Method
	Decision  Decision
	Warnings  []string
	Duration  time.Duration

	// Search is set for branch-and-bound runs.
	Search *SearchStats

	// Fill is the winning ordering for greedy runs.
	Fill Fill
}

// Solve validates p, selects a solver and runs it.
//
// A DP request whose table estimate reaches the memory threshold asks
// opts.Confirmer unless IgnoreMemoryWarning is set; when declined the result
// has Aborted set and no solution, and the error is nil.
func Solve(ctx context.Context, p *Problem, opts Options) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	sel := Selector{Threshold: opts.MemoryThreshold}
	d := sel.Select(len(p.Items), p.Capacity, opts.Method, opts.IgnoreMemoryWarning)
	res := &Result{Requested: opts.Method, Method: d.Method, Decision: d}
	if d.Warning != "" {
		logger.Warn(d.Warning)
		res.Warnings = append(res.Warnings, d.Warning)
	}

	if d.Method == MethodDP && opts.MaxTableBytes > 0 && d.EstimatedBytes > opts.MaxTableBytes {
		return nil, fmt.Errorf("%w: estimated %s exceeds the %s limit", ErrTableTooLarge,
			FormatBytes(d.EstimatedBytes), FormatBytes(opts.MaxTableBytes))
	}

	if d.NeedsConfirmation {
		logger.Warn("expected memory usage exceeds threshold",
			"estimate", FormatBytes(d.EstimatedBytes),
			"threshold", FormatBytes(sel.threshold()))
		confirm := opts.Confirmer
		if confirm == nil {
			confirm = NeverConfirm
		}
		ok, err := confirm.ConfirmMemory(ctx, d.EstimatedBytes, sel.threshold())
		if err != nil {
			return nil, fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			logger.Info("solve aborted by user")
			res.Aborted = true
			return res, nil
		}
	}

	logger.Debug("solving", "method", d.Method.Description(), "items", len(p.Items), "capacity", p.Capacity)
	start := time.Now()
	var err error
	switch d.Method {
	case MethodDP:
		logger.Debug("table size", "rows", p.Capacity+1, "cols", len(p.Items)+1, "bytes", d.EstimatedBytes)
		res.Solution, err = SolveDP(ctx, p)
	case MethodBnB:
		var stats SearchStats
		res.Solution, stats, err = SolveBnB(ctx, p, BnBOptions{
			Workers:   opts.Workers,
			OnImprove: func(obj int64) { logger.Debug("new best", "objective", obj) },
		})
		res.Search = &stats
	case MethodGreedy:
		g := RunGreedy(p)
		res.Solution, res.Fill = g.Best(), g.Chosen
	}
	res.Duration = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Method, err)
	}

	logger.Debug("solved", "method", d.Method, "objective", res.Solution.Objective, "duration", res.Duration)
	return res, nil
}

// FormatBytes renders n with a binary unit, e.g. "1.5 GiB".
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
