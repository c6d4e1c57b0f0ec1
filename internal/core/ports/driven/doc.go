// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DatasetRepository: Dataset and example persistence
//   - RunRepository: Run overview and task output persistence
//   - EvaluationRepository: Evaluation result persistence
//   - ConfigStore: Application configuration
//   - Tracer: Task and span tracing. Use the no-op tracer to disable it.
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ModelClient: Model API access. Without it, completion and keyword tasks are disabled.
//   - ArgillaClient: Human evaluation. Without it, asynchronous evaluation is disabled.
//   - MetricsRecorder: Prometheus metrics. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
