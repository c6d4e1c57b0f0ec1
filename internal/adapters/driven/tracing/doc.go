// Package tracing provides implementations of driven.Tracer.
//
//   - NoOpTracer discards everything.
//   - InMemoryTracer keeps the span tree in memory for inspection and rendering.
//   - OTelTracer exports spans through OpenTelemetry; Setup installs the
//     OTLP/HTTP exporter.
package tracing
