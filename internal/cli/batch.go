package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/knapsack/pkg/pipeline"
)

// batchCommand creates the batch command.
func (c *CLI) batchCommand() *cobra.Command {
	var flags solverFlags
	var jobs int

	cmd := &cobra.Command{
		Use:   "batch [input-dir] [output-dir]",
		Short: "Solve every problem file in a directory",
		Long: `Batch solves each regular file in input-dir (default "input") and writes
the solution to output-dir/<name>.sol (default "output"). Hidden files and
subdirectories are skipped.

Batch never prompts. A dynamic programming request whose table reaches the
memory threshold is reported as aborted for that file unless
--ignore-memory-warning is set.`,
		Example: `  knapsack batch
  knapsack batch data solutions -m bnb -j 8`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := pipeline.DefaultInputDir, pipeline.DefaultOutputDir
			if len(args) > 0 {
				in = args[0]
			}
			if len(args) > 1 {
				out = args[1]
			}
			flags.applyCache(&c.Config)
			opts := flags.options(cmd, c.Config)
			if cmd.Flags().Changed("jobs") {
				opts.BatchWorkers = jobs
			}
			return c.runBatch(cmd, in, out, opts)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&jobs, "jobs", "j", pipeline.DefaultBatchWorkers, "files solved concurrently")
	return cmd
}

func (c *CLI) runBatch(cmd *cobra.Command, in, out string, opts pipeline.Options) error {
	ctx := cmd.Context()
	opts.Logger = loggerFromContext(ctx)
	prog := newProgress(opts.Logger)

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := runner.Batch(ctx, in, out, opts)
	if err != nil {
		return err
	}
	prog.done("batch finished", "run", res.RunID, "files", len(res.Files), "failed", res.Failed)

	if len(res.Files) == 0 {
		printInfo(c.Out, "No problem files in %s", in)
		return nil
	}

	rows := make([][]string, 0, len(res.Files))
	for _, f := range res.Files {
		rows = append(rows, batchRow(f))
	}
	fmt.Fprintln(c.Out, renderTable([]string{"File", "Method", "Result", "Status", "Time"}, rows))

	printSuccess(c.Out, "Solved %d of %d files in %s", res.Solved, len(res.Files), res.Duration.Round(time.Millisecond))
	if res.Aborted > 0 {
		printWarningTo(c.Out, "%d aborted: rerun with -i or -m bnb", res.Aborted)
	}
	printDetail(c.Out, "Run %s", res.RunID)
	printFile(c.Out, out)

	if res.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", res.Failed, len(res.Files))
	}
	return nil
}

func batchRow(f pipeline.FileResult) []string {
	row := []string{f.Name, "-", "-", statusSolved, f.Duration.Round(time.Millisecond).String()}
	switch {
	case f.Err != nil:
		row[3] = statusFailed
	case f.Aborted():
		row[1] = string(f.Result.Solve.Method)
		row[3] = statusAborted
	case f.Result != nil:
		row[1] = string(f.Result.Solve.Method)
		row[2] = strconv.FormatInt(f.Result.Solve.Solution.Objective, 10)
		if f.Result.CacheHit {
			row[3] = iconCached
		}
	}
	return row
}
