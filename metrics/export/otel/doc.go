// Package otel publishes session metrics as OpenTelemetry asynchronous
// instruments on a caller-supplied metric.Meter.
//
// Counters map to Int64ObservableCounter. The login latency histogram is
// published as a cumulative bucket gauge with an "le" attribute plus a
// sample count gauge, matching the Prometheus exporter's buckets.
package otel
