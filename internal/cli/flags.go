package cli

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/knapsack/pkg/pipeline"
)

// solverFlags are shared by solve and batch. Only flags the user set
// override the config file.
type solverFlags struct {
	method    string
	ignore    bool
	workers   int
	threshold uint64
	timeout   time.Duration
	refresh   bool
	cache     string
}

func (f *solverFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.method, "method", "m", pipeline.DefaultMethod, "solver: dp, bnb, greedy or auto")
	fl.BoolVarP(&f.ignore, "ignore-memory-warning", "i", false, "run dynamic programming without asking when the table is large")
	fl.IntVar(&f.workers, "workers", pipeline.DefaultWorkers, "branch-and-bound worker goroutines")
	fl.Uint64Var(&f.threshold, "memory-threshold", pipeline.DefaultMemoryThreshold, "DP table size in bytes that needs confirmation")
	fl.DurationVar(&f.timeout, "timeout", 0, "abort solves that run longer than this (0 for no limit)")
	fl.BoolVar(&f.refresh, "refresh", false, "ignore cached solutions")
	fl.StringVar(&f.cache, "cache", "", "cache backend: file, redis or none (default from config)")
}

// options merges the config file with the flags that were set.
func (f *solverFlags) options(cmd *cobra.Command, cfg Config) pipeline.Options {
	opts := cfg.solverOptions()
	fl := cmd.Flags()
	if fl.Changed("method") {
		opts.Method = f.method
	}
	if fl.Changed("ignore-memory-warning") {
		opts.IgnoreMemoryWarning = f.ignore
	}
	if fl.Changed("workers") {
		opts.Workers = f.workers
	}
	if fl.Changed("memory-threshold") {
		opts.MemoryThreshold = f.threshold
	}
	if fl.Changed("timeout") {
		opts.Timeout = f.timeout
	}
	opts.Refresh = f.refresh
	return opts
}

// applyCache overrides the configured backend when --cache was given.
func (f *solverFlags) applyCache(cfg *Config) {
	if f.cache != "" {
		cfg.Cache.Backend = f.cache
	}
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
