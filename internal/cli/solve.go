package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	kio "github.com/matzehuels/knapsack/pkg/io"
	"github.com/matzehuels/knapsack/pkg/knapsack"
	"github.com/matzehuels/knapsack/pkg/pipeline"
)

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var flags solverFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "solve <input> [output]",
		Short: "Solve one problem file",
		Long: `Solve reads a problem in the text format

  <item count> <capacity>
  <value> <weight>
  ...

and prints the method used, the objective and the selection. The solution
is written to output when given, otherwise to stdout as two lines: the
objective and the space-separated 0/1 selection.

A dynamic programming table at or above the memory threshold asks for
confirmation unless --ignore-memory-warning is set.`,
		Example: `  knapsack solve data/ks_4_0
  knapsack solve data/ks_10000_0 out.sol -m bnb --timeout 1m
  knapsack solve data/ks_1000_0 -m dp -i`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.applyCache(&c.Config)
			opts := flags.options(cmd, c.Config)
			input, output := args[0], ""
			if len(args) == 2 {
				output = args[1]
			}
			return c.runSolve(cmd, input, output, opts, asJSON)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the solution as JSON")
	return cmd
}

func (c *CLI) runSolve(cmd *cobra.Command, input, output string, opts pipeline.Options, asJSON bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	stderr := cmd.ErrOrStderr()

	// Results go to stdout; status lines go there only when stdout is not
	// carrying the solution itself.
	status := c.Out
	if output == "" {
		status = stderr
	}

	prog := newProgress(logger)
	p, err := kio.ImportProblem(input)
	if err != nil {
		return err
	}
	prog.done("read problem", "items", len(p.Items), "capacity", p.Capacity)

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts.Logger = logger
	opts.Confirmer = c.confirmer(stderr)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	d := opts.Decide(p)
	var spin *Spinner
	if !d.NeedsConfirmation && isTerminal(stderr) {
		spin = newSpinnerWithContext(ctx, stderr, "Solving with "+d.Method.Description()+"...")
		spin.Start()
	}
	res, err := runner.Solve(ctx, p, opts)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	if res.Solve.Aborted {
		printWarningTo(status, "Program aborted by user.")
		return nil
	}
	prog.done("solved", "method", res.Solve.Method, "objective", res.Solve.Solution.Objective, "cached", res.CacheHit)

	printKeyValue(status, "Method", res.Solve.Method.Description())
	printKeyValue(status, "Result", fmt.Sprintf("%d", res.Solve.Solution.Objective))
	printKeyValue(status, "Sequence", formatSelection(res.Solve.Solution.Selection))
	printStats(status, res.Stats.Items, res.Stats.Capacity, res.CacheHit)
	printSolveDetail(status, res)

	var buf bytes.Buffer
	if asJSON {
		err = kio.WriteSolutionJSON(&buf, p, res.Solve.Solution)
	} else {
		err = kio.WriteSolution(&buf, res.Solve.Solution)
	}
	if err != nil {
		return err
	}

	if output == "" {
		_, err = c.Out.Write(buf.Bytes())
		return err
	}
	if err := writeOutput(output, buf.Bytes()); err != nil {
		return err
	}
	prog.done("wrote solution", "path", output)
	printSuccess(status, "Solution saved")
	printFile(status, output)
	return nil
}

// printSolveDetail prints method-specific statistics.
func printSolveDetail(w io.Writer, res *pipeline.Result) {
	switch {
	case res.CacheHit:
	case res.Solve.Search != nil:
		st := res.Solve.Search
		printDetail(w, "%d nodes explored, %d pruned, %d leaves (best %d), %d improvements in %s",
			st.Nodes, st.Pruned, st.Leaves, st.BestLeaf, st.Improvements,
			res.Stats.SolveTime.Round(time.Millisecond))
	case res.Solve.Method == knapsack.MethodGreedy:
		printDetail(w, "best fill: %s", res.Solve.Fill)
	default:
		printDetail(w, "table %s in %s", knapsack.FormatBytes(res.Solve.Decision.EstimatedBytes),
			res.Stats.SolveTime.Round(time.Millisecond))
	}
}

// formatSelection renders a selection as "[0 1 1 0]".
func formatSelection(sel []uint8) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range sel {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", x)
	}
	b.WriteByte(']')
	return b.String()
}

func writeOutput(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
