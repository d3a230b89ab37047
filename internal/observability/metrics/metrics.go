package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	zoneResolves metric.Int64Counter
	rateQuotes   metric.Int64Counter
	rateNotFound metric.Int64Counter
	weightCalcs  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "freightrate"
	}
	meter := provider.Meter(name)

	zoneResolves, err := meter.Int64Counter("zone_resolves_total",
		metric.WithDescription("Zone resolution calls by match quality"))
	if err != nil {
		return nil, err
	}
	rateQuotes, err := meter.Int64Counter("rate_quotes_total",
		metric.WithDescription("Rate quote calls by result"))
	if err != nil {
		return nil, err
	}
	rateNotFound, err := meter.Int64Counter("rate_quotes_not_found_total",
		metric.WithDescription("Rate quotes with no matching rate card entry"))
	if err != nil {
		return nil, err
	}
	weightCalcs, err := meter.Int64Counter("chargeable_weight_calcs_total",
		metric.WithDescription("Chargeable weight calculations by weight basis"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		zoneResolves: zoneResolves,
		rateQuotes:   rateQuotes,
		rateNotFound: rateNotFound,
		weightCalcs:  weightCalcs,
	}, nil
}

func (m *Metrics) RecordZoneResolve(ctx context.Context, quality string) {
	if m == nil || m.zoneResolves == nil {
		return
	}
	m.zoneResolves.Add(ctx, 1, metric.WithAttributes(attribute.String("quality", quality)))
}

func (m *Metrics) RecordRateQuote(ctx context.Context, found bool) {
	if m == nil || m.rateQuotes == nil {
		return
	}
	result := "found"
	if !found {
		result = "not_found"
		if m.rateNotFound != nil {
			m.rateNotFound.Add(ctx, 1)
		}
	}
	m.rateQuotes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) RecordWeightCalc(ctx context.Context, basis string) {
	if m == nil || m.weightCalcs == nil {
		return
	}
	m.weightCalcs.Add(ctx, 1, metric.WithAttributes(attribute.String("basis", basis)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch protocol {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp metric protocol %q", protocol)
	}
}
