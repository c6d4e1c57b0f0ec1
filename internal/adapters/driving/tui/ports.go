// Package tui provides an interactive terminal browser for datasets, runs
// and evaluations. It is a driving adapter like the CLI and the MCP server.
package tui

import (
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Datasets lists and deletes datasets. Required.
	Datasets driving.DatasetService

	// Evaluations lists runs and evaluations. Optional: without it the
	// run and evaluation views report that the model API is not configured.
	Evaluations driving.EvaluationService

	// Keywords powers the keyword playground. Optional.
	Keywords driving.KeywordService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Datasets == nil {
		return ErrMissingDatasetService
	}
	return nil
}
