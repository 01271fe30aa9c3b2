// Package pipeline runs knapsack solves end to end for the CLI and the API.
//
// This package wraps the solvers in [knapsack] with everything around them:
// reading problem files, consulting the solution cache, emitting
// observability events, and writing solution files. By centralizing this
// logic, the CLI commands and the HTTP handlers behave the same way.
//
// # Stages
//
//  1. Read: parse a problem file ([io.ImportProblem]) or take a problem
//     built by the caller
//  2. Select: resolve the requested method to the solver that will run
//  3. Solve: return a cached solution for that solver or run it
//  4. Write: store the solution file next to the others
//
// # Usage
//
// Create a Runner and solve a single file:
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.SolveFile(ctx, "input/ks_4_0", "output/ks_4_0.sol", pipeline.Options{
//	    Method: "auto",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if res.Solve.Aborted {
//	    // user declined the DP memory warning
//	}
//
// Solve a whole directory, one solution per input file:
//
//	batch, err := runner.Batch(ctx, "input", "output", pipeline.Options{BatchWorkers: 4})
//
// [io.ImportProblem]: github.com/matzehuels/knapsack/pkg/io.ImportProblem
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	kerrors "github.com/matzehuels/knapsack/pkg/errors"
	"github.com/matzehuels/knapsack/pkg/knapsack"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultMethod is the method used when none is requested.
	DefaultMethod = string(knapsack.MethodAuto)

	// DefaultMemoryThreshold is the DP table size at which a DP request needs
	// confirmation and auto selection switches to branch-and-bound.
	DefaultMemoryThreshold = knapsack.DefaultMemoryThreshold

	// DefaultWorkers is the number of branch-and-bound workers per solve.
	DefaultWorkers = 1

	// DefaultBatchWorkers is the number of files a batch solves at once.
	DefaultBatchWorkers = 4

	// DefaultInputDir and DefaultOutputDir are the batch directories used
	// when none are given.
	DefaultInputDir  = "input"
	DefaultOutputDir = "output"

	// SolutionExt is appended to the input name to form the solution name.
	SolutionExt = ".sol"

	// maxWorkers bounds both worker settings.
	maxWorkers = 256
)

// =============================================================================
// Options - Solve Configuration
// =============================================================================

// Options contains all configuration for a solve or a batch.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Method is the requested method name. Unknown names fall back to auto
	// with a warning rather than failing.
	Method string `json:"method,omitempty"`

	// IgnoreMemoryWarning runs DP without asking, whatever its table size.
	IgnoreMemoryWarning bool `json:"ignore_memory_warning,omitempty"`

	// MemoryThreshold is the DP table limit in bytes.
	MemoryThreshold uint64 `json:"memory_threshold,omitempty"`

	// MaxDPBytes is a hard DP table limit that IgnoreMemoryWarning cannot
	// lift; 0 means none.
	MaxDPBytes uint64 `json:"-"`

	// Workers is the number of branch-and-bound workers.
	Workers int `json:"workers,omitempty"`

	// Refresh skips the cache lookup but still stores the new result.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Timeout      time.Duration      `json:"-"`
	BatchWorkers int                `json:"-"`
	Confirmer    knapsack.Confirmer `json:"-"`
	Logger       *log.Logger        `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of one solve.
type Result struct {
	// Problem is the instance that was solved.
	Problem *knapsack.Problem

	// ProblemHash is the content hash used for cache keys.
	ProblemHash string

	// Solve is the solver outcome. Solve.Aborted is set when a DP request
	// was declined; Solve.Solution is then empty.
	Solve *knapsack.Result

	// CacheHit reports whether the solution came from the cache.
	CacheHit bool

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains solve statistics.
type Stats struct {
	Items     int
	Capacity  int64
	ReadTime  time.Duration
	SolveTime time.Duration
	WriteTime time.Duration
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks numeric fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Workers < 0 || o.Workers > maxWorkers {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "workers must be between 1 and %d", maxWorkers)
	}
	if o.BatchWorkers < 0 || o.BatchWorkers > maxWorkers {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "batch workers must be between 1 and %d", maxWorkers)
	}
	if o.Timeout < 0 {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "timeout must not be negative")
	}

	if strings.TrimSpace(o.Method) == "" {
		o.Method = DefaultMethod
	}
	if o.MemoryThreshold == 0 {
		o.MemoryThreshold = DefaultMemoryThreshold
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.BatchWorkers == 0 {
		o.BatchWorkers = DefaultBatchWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// RequestedMethod normalizes Method. Unknown names are returned as given so
// the selector can report them.
func (o *Options) RequestedMethod() knapsack.Method {
	if m, ok := knapsack.ParseMethod(o.Method); ok {
		return m
	}
	return knapsack.Method(o.Method)
}

// Decide resolves the solver for p without running it.
func (o *Options) Decide(p *knapsack.Problem) knapsack.Decision {
	sel := knapsack.Selector{Threshold: o.MemoryThreshold}
	return sel.Select(len(p.Items), p.Capacity, o.RequestedMethod(), o.IgnoreMemoryWarning)
}

// SolveOptions converts o to solver options.
func (o *Options) SolveOptions() knapsack.Options {
	return knapsack.Options{
		Method:              o.RequestedMethod(),
		IgnoreMemoryWarning: o.IgnoreMemoryWarning,
		MemoryThreshold:     o.MemoryThreshold,
		MaxTableBytes:       o.MaxDPBytes,
		Confirmer:           o.Confirmer,
		Workers:             o.Workers,
		Timeout:             o.Timeout,
		Logger:              o.Logger,
	}
}
