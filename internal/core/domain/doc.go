// Package domain defines the core business entities for the intelligence layer.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Example, Dataset: Evaluation inputs with their expected outputs
//   - RunOverview, ExampleOutput: Results of running a task over a dataset
//   - EvaluationOverview, ExampleEvaluation: Graded run results
//   - CompleteInput, CompleteOutput: Model completion requests and responses
//   - RichPrompt: A rendered prompt with named ranges
//   - Record, ArgillaEvaluation: Human feedback exchanged with Argilla
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
