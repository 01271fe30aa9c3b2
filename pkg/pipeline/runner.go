package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/knapsack/pkg/cache"
	kerrors "github.com/matzehuels/knapsack/pkg/errors"
	kio "github.com/matzehuels/knapsack/pkg/io"
	"github.com/matzehuels/knapsack/pkg/knapsack"
	"github.com/matzehuels/knapsack/pkg/observability"
)

// cacheKeyType labels solution entries in cache hooks.
const cacheKeyType = "solution"

// Runner encapsulates solving with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long solutions stay cached (default cache.TTLSolution).
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Solve solves p, answering from the cache when a solution from the same
// solver is stored. A DP request that is declined at the memory check
// returns a result with Solve.Aborted set and a nil error.
func (r *Runner) Solve(ctx context.Context, p *knapsack.Problem, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "invalid problem")
	}

	result := &Result{
		Problem:     p,
		ProblemHash: cache.ProblemHash(p),
		Stats:       Stats{Items: len(p.Items), Capacity: p.Capacity},
	}

	d := opts.Decide(p)
	cacheKey := r.Keyer.SolutionKey(result.ProblemHash, cache.SolutionKeyOpts{Method: string(d.Method)})

	// Try cache first (unless refresh requested). A cached DP answer needs
	// no table, so it is returned without the memory check.
	if !opts.Refresh {
		if sol, ok := r.cached(ctx, cacheKey, p); ok {
			res := &knapsack.Result{
				Solution:  sol,
				Requested: d.Requested,
				Method:    d.Method,
				Decision:  d,
			}
			if d.Warning != "" {
				opts.Logger.Warn(d.Warning)
				res.Warnings = append(res.Warnings, d.Warning)
			}
			result.Solve = res
			result.CacheHit = true
			opts.Logger.Debug("cache hit", "method", d.Method, "objective", sol.Objective)
			return result, nil
		}
	}

	hooks := observability.Solver()
	hooks.OnSolveStart(ctx, string(d.Method), len(p.Items), p.Capacity)
	start := time.Now()
	res, err := knapsack.Solve(ctx, p, opts.SolveOptions())
	result.Stats.SolveTime = time.Since(start)
	if err != nil {
		hooks.OnSolveComplete(ctx, string(d.Method), 0, result.Stats.SolveTime, err)
		return nil, classifySolveError(err)
	}
	result.Solve = res

	if res.Aborted {
		hooks.OnSolveComplete(ctx, string(d.Method), 0, result.Stats.SolveTime, nil)
		hooks.OnAborted(ctx, string(d.Method), d.EstimatedBytes)
		return result, nil
	}
	hooks.OnSolveComplete(ctx, string(res.Method), res.Solution.Objective, result.Stats.SolveTime, nil)

	var buf bytes.Buffer
	if err := kio.WriteSolution(&buf, res.Solution); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, buf.Bytes(), r.ttl()); err != nil {
			opts.Logger.Debug("cache store failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cacheKeyType, buf.Len())
		}
	}

	return result, nil
}

// cached returns the stored solution for key if it is present and still
// verifies against p.
func (r *Runner) cached(ctx context.Context, key string, p *knapsack.Problem) (knapsack.Solution, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return knapsack.Solution{}, false
	}
	sol, err := kio.ReadSolution(bytes.NewReader(data))
	if err != nil || sol.Verify(p) != nil {
		// Undecodable or stale entry - drop it and recompute
		_ = r.Cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return knapsack.Solution{}, false
	}
	observability.Cache().OnCacheHit(ctx, cacheKeyType)
	return sol, true
}

// SolveFile reads the problem at inPath, solves it and, unless the solve
// was aborted or outPath is empty, writes the solution to outPath.
func (r *Runner) SolveFile(ctx context.Context, inPath, outPath string, opts Options) (*Result, error) {
	start := time.Now()
	p, err := kio.ImportProblem(inPath)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	readTime := time.Since(start)

	result, err := r.Solve(ctx, p, opts)
	if err != nil {
		return nil, fmt.Errorf("solve %s: %w", inPath, err)
	}
	result.Stats.ReadTime = readTime

	if outPath == "" || result.Solve.Aborted {
		return result, nil
	}
	start = time.Now()
	if err := kio.ExportSolution(outPath, result.Solve.Solution); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	result.Stats.WriteTime = time.Since(start)
	return result, nil
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLSolution
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// classifySolveError attaches an error code to solver failures.
func classifySolveError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return kerrors.Wrap(kerrors.ErrCodeTimeout, err, "solve timed out")
	case errors.Is(err, context.Canceled):
		return kerrors.Wrap(kerrors.ErrCodeAborted, err, "solve cancelled")
	case errors.Is(err, knapsack.ErrTableTooLarge):
		return kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "problem too large for dynamic programming")
	default:
		return kerrors.Wrap(kerrors.ErrCodeInternal, err, "solve failed")
	}
}
