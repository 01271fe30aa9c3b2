package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/knapsack/pkg/api"
	"github.com/matzehuels/knapsack/pkg/observability"
	"github.com/matzehuels/knapsack/pkg/pipeline"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var flags solverFlags
	var addr string
	var maxDP uint64

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the solver over HTTP",
		Long: `Serve starts an HTTP API:

  POST /v1/solve    solve a JSON or text problem
  GET  /v1/methods  list methods
  GET  /healthz     health check
  GET  /metrics     Prometheus metrics

Solver flags set the defaults for every request. The server never prompts:
a dynamic programming request above the memory threshold is answered with
409 unless the request sets ignore_memory_warning, and one above
--max-dp-bytes is rejected with 400 either way.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.applyCache(&c.Config)
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}
			if cmd.Flags().Changed("max-dp-bytes") {
				c.Config.Server.MaxDPBytes = maxDP
			}
			return c.runServe(cmd.Context(), c.Config.Server.Addr, flags.options(cmd, c.Config))
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().Uint64Var(&maxDP, "max-dp-bytes", 0, "largest DP table a request may allocate (default: memory threshold)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, defaults pipeline.Options) error {
	logger := loggerFromContext(ctx)
	if err := defaults.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	var prom *observability.PrometheusHooks
	if c.metrics != nil {
		prom = c.metrics.hooks
	} else {
		prom = observability.NewPrometheusHooks(prometheus.NewRegistry())
		observability.SetSolverHooks(prom)
		observability.SetCacheHooks(prom)
	}
	observability.SetHTTPHooks(prom)

	srv := api.New(api.Config{
		Runner:     runner,
		Defaults:   defaults,
		Metrics:    prom.Handler(),
		MaxDPBytes: c.Config.Server.MaxDPBytes,
		Logger:     logger,
	}).HTTPServer(addr)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	printSuccess(c.Out, "Listening on %s", ln.Addr())
	printDetail(c.Out, "cache: %s · method: %s", c.Config.Cache.Backend, defaults.Method)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
