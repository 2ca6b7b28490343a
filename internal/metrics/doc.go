// Package metrics provides lock-free counters and latency histograms for
// authcore observability.
//
// # Design
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically. Only Authenticate and Login latency are observed; each
// histogram has 8 fixed buckets from 5ms to +Inf and records counts only.
// Nothing allocates on the write path.
//
// # Architecture boundaries
//
// The root package aliases [ID] as MetricID for its public snapshot. Export
// to Prometheus or OpenTelemetry reads snapshots from metrics/export.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import authcore or any sibling package.
//   - Expose global metric registries.
package metrics
