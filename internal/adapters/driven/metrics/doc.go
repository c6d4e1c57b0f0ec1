// Package metrics implements driven.MetricsRecorder.
//
// PrometheusRecorder exposes task, model request and evaluation measurements
// on a Prometheus registry; NoOpRecorder discards them.
package metrics
