package bootstrap

import (
	"log/slog"

	"github.com/target/foodorder-ui/config"
	"github.com/target/foodorder-ui/internal/observability/statsd"
)

// buildMetrics returns the StatsD sink, or a no-op sink when metrics are
// disabled or the agent cannot be reached.
//
//nolint:ireturn // callers only need the Sink behaviour.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) statsd.Sink {
	if !cfg.IsEnabled() {
		return statsd.Nop{}
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return statsd.Nop{}
	}
	return client
}
