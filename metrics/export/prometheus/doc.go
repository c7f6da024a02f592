// Package prometheus exposes authcore engine counters to Prometheus.
//
// [PrometheusExporter] is a client_golang Collector that turns each
// [authcore.Engine.MetricsSnapshot] into const metrics at scrape time.
// Counter names are prefixed authcore_*_total; the single histogram is
// authcore_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
