// Package prometheus exports session metrics through
// github.com/prometheus/client_golang.
//
// [PrometheusExporter] implements prometheus.Collector, so it can be
// registered in any registry, or served standalone through Handler.
package prometheus
