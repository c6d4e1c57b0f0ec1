package mcp

import (
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Model runs completions.
	Model driving.ModelService

	// Keywords extracts keywords from text.
	Keywords driving.KeywordService

	// Datasets lists evaluation datasets. Optional.
	Datasets driving.DatasetService

	// Evaluations exposes finished evaluations. Optional.
	Evaluations driving.EvaluationService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Model == nil {
		return ErrMissingModelService
	}
	if p.Keywords == nil {
		return ErrMissingKeywordService
	}
	return nil
}
