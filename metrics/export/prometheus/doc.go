// Package prometheus exposes authcore metrics through
// github.com/prometheus/client_golang.
//
// [Collector] implements prometheus.Collector over [authcore.Engine.MetricsSnapshot].
// Counter names are prefixed authcore_*_total; latency histograms are
// authcore_authenticate_latency_seconds and authcore_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry. [Handler] uses a private one.
//   - Mutate engine state.
package prometheus
