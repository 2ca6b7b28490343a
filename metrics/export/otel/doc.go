// Package otel publishes authcore counters and latency histograms as
// OpenTelemetry observable instruments.
//
// [New] registers one Int64ObservableCounter per counter and one
// Int64ObservableGauge per cumulative histogram bucket. A single callback
// reads [authcore.Engine.MetricsSnapshot] on each collection.
//
// The caller owns the MeterProvider.
package otel
