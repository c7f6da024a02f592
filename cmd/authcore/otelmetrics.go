package main

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
)

const meterName = "github.com/MrEthical07/authcore"

// logExporter writes every collected int64 data point as one log record.
type logExporter struct {
	logger *slog.Logger
}

var _ sdkmetric.Exporter = (*logExporter)(nil)

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
				e.logPoints(ctx, m.Name, data.DataPoints)
			case metricdata.Gauge[int64]:
				e.logPoints(ctx, m.Name, data.DataPoints)
			}
		}
	}
	return nil
}

func (e *logExporter) logPoints(ctx context.Context, name string, points []metricdata.DataPoint[int64]) {
	for _, dp := range points {
		attrs := make([]slog.Attr, 0, dp.Attributes.Len()+2)
		attrs = append(attrs, slog.String("metric", name), slog.Int64("value", dp.Value))
		iter := dp.Attributes.Iter()
		for iter.Next() {
			kv := iter.Attribute()
			attrs = append(attrs, slog.String(string(kv.Key), kv.Value.Emit()))
		}
		e.logger.LogAttrs(ctx, slog.LevelInfo, "metric", attrs...)
	}
}

func (e *logExporter) ForceFlush(context.Context) error { return nil }

func (e *logExporter) Shutdown(context.Context) error { return nil }

// setupMetrics installs a process-wide meter provider whose reader logs a
// collection every interval.
func setupMetrics(logger *slog.Logger, res *resource.Resource, interval time.Duration) *sdkmetric.MeterProvider {
	reader := sdkmetric.NewPeriodicReader(&logExporter{logger: logger}, sdkmetric.WithInterval(interval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)
	return mp
}
