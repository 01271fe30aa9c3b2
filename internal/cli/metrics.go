package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/knapsack/pkg/observability"
)

// metricsSink collects solver and cache metrics for one CLI invocation and
// writes them in the node_exporter textfile format when the command ends.
type metricsSink struct {
	path  string
	hooks *observability.PrometheusHooks
}

func newMetricsSink(path string) *metricsSink {
	hooks := observability.NewPrometheusHooks(prometheus.NewRegistry())
	observability.SetSolverHooks(hooks)
	observability.SetCacheHooks(hooks)
	return &metricsSink{path: path, hooks: hooks}
}

// flushMetrics writes the textfile if --metrics-file was given.
func (c *CLI) flushMetrics() error {
	if c.metrics == nil {
		return nil
	}
	if err := ensureDir(c.metrics.path); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.metrics.hooks.WriteTextfile(c.metrics.path); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	c.Logger.Debug("metrics written", "path", c.metrics.path)
	return nil
}
