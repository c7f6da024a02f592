package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/authcore"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot authcore.MetricsSnapshot
}

func (f *fakeSource) MetricsSnapshot() authcore.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := authcore.MetricsSnapshot{
		Counters:   make(map[authcore.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[authcore.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func newTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumByAttr(t *testing.T, data metricdata.Aggregation, key string) map[string]int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", data)
	}
	out := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(key))
		out[v.AsString()] = dp.Value
	}
	return out
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newTestMeter()
	src := &fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters: map[authcore.MetricID]uint64{
				authcore.MetricLoginSuccess:           3,
				authcore.MetricLoginIncorrectPassword: 2,
				authcore.MetricReauthFailure:          1,
				authcore.MetricSessionCreated:         4,
				authcore.MetricRememberWriteFailed:    1,
				authcore.MetricLogout:                 5,
			},
			Histograms: map[authcore.MetricID][]uint64{
				authcore.MetricLoginLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(provider.Meter("authcore-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	got := collect(t, reader)

	logins := sumByAttr(t, got[LoginAttempts], "outcome")
	if logins["success"] != 3 || logins["incorrect_password"] != 2 || logins["user_not_exist"] != 0 {
		t.Fatalf("unexpected login attempts: %v", logins)
	}
	if reauth := sumByAttr(t, got[ReauthAttempts], "outcome"); reauth["failure"] != 1 || reauth["success"] != 0 {
		t.Fatalf("unexpected reauth attempts: %v", reauth)
	}
	if sessions := sumByAttr(t, got[Sessions], "event"); sessions["created"] != 4 {
		t.Fatalf("unexpected sessions: %v", sessions)
	}
	if writes := sumByAttr(t, got[RememberWrites], "result"); writes["failed"] != 1 {
		t.Fatalf("unexpected remember writes: %v", writes)
	}
	logouts, ok := got[Logouts].(metricdata.Sum[int64])
	if !ok || len(logouts.DataPoints) != 1 || logouts.DataPoints[0].Value != 5 {
		t.Fatalf("unexpected logouts: %#v", got[Logouts])
	}

	buckets, ok := got[LatencyBucket].(metricdata.Gauge[int64])
	if !ok || len(buckets.DataPoints) != 8 {
		t.Fatalf("unexpected latency buckets: %#v", got[LatencyBucket])
	}
	byBound := map[string]int64{}
	for _, dp := range buckets.DataPoints {
		v, _ := dp.Attributes.Value("le")
		byBound[v.AsString()] = dp.Value
	}
	if byBound["0.005"] != 1 || byBound["0.1"] != 5 || byBound["+Inf"] != 8 {
		t.Fatalf("expected cumulative buckets, got %v", byBound)
	}
	count, ok := got[LatencyCount].(metricdata.Gauge[int64])
	if !ok || len(count.DataPoints) != 1 || count.DataPoints[0].Value != 8 {
		t.Fatalf("unexpected latency count: %#v", got[LatencyCount])
	}
}

func TestExporterSkipsLatencyWhenDisabled(t *testing.T) {
	reader, provider := newTestMeter()
	src := &fakeSource{snapshot: authcore.MetricsSnapshot{
		Counters: map[authcore.MetricID]uint64{authcore.MetricLoginSuccess: 1},
	}}
	exp, err := NewOTelExporterFromSource(provider.Meter("authcore-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	got := collect(t, reader)
	if _, ok := got[LatencyBucket]; ok {
		t.Fatalf("expected no latency buckets without a histogram")
	}
	if logins := sumByAttr(t, got[LoginAttempts], "outcome"); logins["success"] != 1 {
		t.Fatalf("unexpected login attempts: %v", logins)
	}
}

func TestExporterWithEngine(t *testing.T) {
	if _, err := NewOTelExporter(nil, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil engine, got %v", err)
	}
}

func TestExporterRejectsNilMeter(t *testing.T) {
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	_, provider := newTestMeter()
	if _, err := NewOTelExporterFromSource(provider.Meter("authcore-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newTestMeter()
	src := &fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters: map[authcore.MetricID]uint64{
				authcore.MetricLoginSuccess: 1,
			},
			Histograms: map[authcore.MetricID][]uint64{
				authcore.MetricLoginLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(provider.Meter("authcore-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[authcore.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
