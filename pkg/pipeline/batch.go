package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	kerrors "github.com/matzehuels/knapsack/pkg/errors"
	"github.com/matzehuels/knapsack/pkg/knapsack"
)

// FileResult is the outcome for one batch input.
type FileResult struct {
	Name     string
	Input    string
	Output   string
	Result   *Result
	Duration time.Duration
	Err      error
}

// Aborted reports whether the file's DP request was declined.
func (f FileResult) Aborted() bool {
	return f.Err == nil && f.Result != nil && f.Result.Solve.Aborted
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	RunID    string
	Files    []FileResult
	Solved   int
	Aborted  int
	Failed   int
	Duration time.Duration
}

// Batch solves every regular file in inDir and writes each solution to
// outDir/<name>.sol. Directories and hidden files are skipped.
//
// Batch never prompts: a DP request that needs confirmation is aborted for
// that file unless IgnoreMemoryWarning is set. A failing file is recorded
// and does not stop the others; only context cancellation ends the batch
// early.
func (r *Runner) Batch(ctx context.Context, inDir, outDir string, opts Options) (*BatchResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	opts.Confirmer = knapsack.NeverConfirm

	entries, err := os.ReadDir(inDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kerrors.Wrap(kerrors.ErrCodeFileNotFound, err, "input directory %s", inDir)
		}
		return nil, fmt.Errorf("read %s: %w", inDir, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", outDir, err)
	}

	batch := &BatchResult{RunID: uuid.NewString()}
	logger := opts.Logger.With("run", batch.RunID[:8])
	opts.Logger = logger

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := kerrors.ValidateFilename(e.Name()); err != nil {
			logger.Debug("skipping", "file", e.Name(), "reason", kerrors.UserMessage(err))
			continue
		}
		batch.Files = append(batch.Files, FileResult{
			Name:   e.Name(),
			Input:  filepath.Join(inDir, e.Name()),
			Output: filepath.Join(outDir, e.Name()+SolutionExt),
		})
	}
	logger.Info("starting batch", "files", len(batch.Files), "workers", opts.BatchWorkers, "method", opts.Method)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.BatchWorkers)
	for i := range batch.Files {
		f := &batch.Files[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := time.Now()
			f.Result, f.Err = r.SolveFile(gctx, f.Input, f.Output, opts)
			f.Duration = time.Since(t)
			logFile(logger, f)
			if f.Err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	err = g.Wait()
	batch.Duration = time.Since(start)

	for _, f := range batch.Files {
		switch {
		case f.Err != nil:
			batch.Failed++
		case f.Aborted():
			batch.Aborted++
		case f.Result != nil:
			batch.Solved++
		}
	}
	if err != nil {
		return batch, fmt.Errorf("batch %s: %w", batch.RunID, err)
	}
	logger.Info("batch complete",
		"solved", batch.Solved,
		"aborted", batch.Aborted,
		"failed", batch.Failed,
		"duration", batch.Duration.Round(time.Millisecond))
	return batch, nil
}

func logFile(logger *log.Logger, f *FileResult) {
	switch {
	case f.Err != nil:
		logger.Error("failed", "file", f.Name, "error", f.Err)
	case f.Aborted():
		logger.Warn("aborted", "file", f.Name, "reason", "dp table above memory threshold")
	default:
		res := f.Result.Solve
		logger.Info("solved",
			"file", f.Name,
			"method", res.Method,
			"objective", res.Solution.Objective,
			"cached", f.Result.CacheHit,
			"duration", f.Duration.Round(time.Microsecond))
	}
}
