package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/playgate"
	otelexport "github.com/MrEthical07/playgate/metrics/export/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
)

// startOTelMetrics registers the engine instruments on a MeterProvider that pushes
// every interval to logger. The returned function flushes and stops the pipeline.
func startOTelMetrics(engine *playgate.Engine, logger *slog.Logger, interval time.Duration) (func(context.Context) error, error) {
	reader := sdkmetric.NewPeriodicReader(&logExporter{logger: logger}, sdkmetric.WithInterval(interval))
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource.NewSchemaless(attribute.String("service.name", "playgate-server"))),
	)

	exp, err := otelexport.Register(provider.Meter("github.com/MrEthical07/playgate"), engine)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}
	return func(ctx context.Context) error {
		flushErr := provider.ForceFlush(ctx)
		_ = exp.Close()
		return errors.Join(flushErr, provider.Shutdown(ctx))
	}, nil
}

// logExporter writes each collected data point as one structured log line.
type logExporter struct {
	logger *slog.Logger
}

func (e *logExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(k)
}

func (e *logExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func (e *logExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					e.write(ctx, m.Name, dp.Attributes, slog.Int64("value", dp.Value))
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					e.write(ctx, m.Name, dp.Attributes, slog.Int64("value", dp.Value))
				}
			case metricdata.Gauge[float64]:
				for _, dp := range data.DataPoints {
					e.write(ctx, m.Name, dp.Attributes, slog.Float64("value", dp.Value))
				}
			}
		}
	}
	return nil
}

func (e *logExporter) write(ctx context.Context, name string, set attribute.Set, value slog.Attr) {
	attrs := make([]slog.Attr, 0, set.Len()+2)
	attrs = append(attrs, slog.String("metric", name), value)
	for _, kv := range set.ToSlice() {
		attrs = append(attrs, slog.String(string(kv.Key), kv.Value.Emit()))
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "metric", attrs...)
}

func (e *logExporter) ForceFlush(context.Context) error { return nil }

func (e *logExporter) Shutdown(context.Context) error { return nil }
