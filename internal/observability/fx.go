package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/freightrate/internal/observability/logger"
	"github.com/smallbiznis/freightrate/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires logging and metrics for the application.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		newLogger,
		newMetricsConfig,
		newRegistry,
		newRegisterer,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		metrics.NewImportMetrics,
	),
	fx.Invoke(registerLoggerHooks),
)

func newLogger(cfg Config) (*zap.Logger, error) {
	return logger.New(cfg.LogLevel)
}

func newMetricsConfig(cfg Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OtelEnabled,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
	}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	return reg
}

func newRegisterer(reg *prometheus.Registry) prometheus.Registerer {
	return reg
}

func registerLoggerHooks(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			_ = log.Sync()
			return nil
		},
	})
}
