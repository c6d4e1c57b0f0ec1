// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Tasks are the unit of work: a Task turns an input into an output and is
// executed through Run, which records a task span on the configured tracer.
// Models, keyword extraction, the dataset runner and the evaluators are
// all built on top of tasks.
//
// Services are pure Go with no CGO. Besides the standard library they only
// use github.com/google/uuid for identifiers and golang.org/x/sync for
// bounded concurrency.
package services
