// Package sqlite provides a SQLite-based implementation of the repository ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements the repositories
// through a single database connection:
//
//   - DatasetRepository: datasets and their examples
//   - RunRepository: run overviews and example outputs
//   - EvaluationRepository: evaluation overviews, partial (Argilla) overviews
//     and example evaluations
//
// Inputs, outputs and evaluation results are stored as JSON text.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.ilayer/data/repository.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
