// Package cli implements the knapsack command-line interface.
//
// The commands read problem files, solve them with the pipeline runner and
// report results with lipgloss styling. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - solve: Solve one problem file
//   - batch: Solve every file in a directory
//   - serve: Run the HTTP API
//   - cache: Manage the solution cache
//   - config: Show the effective configuration
//
// # Configuration
//
// Defaults come from $XDG_CONFIG_HOME/knapsack/config.toml (see [Config]);
// flags given on the command line override the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w with centisecond timestamps,
// e.g. "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one stage of a command. Each done call logs the stage with
// the time since the previous one, so a command reads as a sequence of
// "read problem", "solved", "wrote solution" lines. Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with keyvals and an elapsed field rounded to
// the millisecond, then restarts the clock.
func (p *progress) done(msg string, keyvals ...any) {
	now := time.Now()
	keyvals = append(keyvals, "elapsed", now.Sub(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
	p.start = now
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx for loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default when a command runs without it.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
