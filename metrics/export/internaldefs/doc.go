// Package internaldefs holds the metric names, help strings and bucket
// boundaries shared by the Prometheus and OpenTelemetry exporters, so both
// publish identical series for the same session counters.
package internaldefs
