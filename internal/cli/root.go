package cli

import (
	"context"
	"io"
)

// Execute builds the command tree and runs it with args. Logs go to stderr;
// results go to stdout. It is the entry point used by cmd/knapsack.
//
// Logging:
//   - Default: info level
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	c := New(stderr, LogInfo)
	c.In = stdin
	c.Out = stdout

	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}
