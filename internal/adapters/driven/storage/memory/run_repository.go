package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// Ensure RunRepository implements the interface.
var _ driven.RunRepository = (*RunRepository)(nil)

// RunRepository is an in-memory implementation of driven.RunRepository.
type RunRepository struct {
	mu        sync.RWMutex
	overviews map[string]domain.RunOverview
	outputs   map[string]map[string]domain.ExampleOutput
}

// NewRunRepository creates a new in-memory run repository.
func NewRunRepository() *RunRepository {
	return &RunRepository{
		overviews: make(map[string]domain.RunOverview),
		outputs:   make(map[string]map[string]domain.ExampleOutput),
	}
}

// StoreRunOverview stores or replaces a run overview.
func (r *RunRepository) StoreRunOverview(_ context.Context, overview domain.RunOverview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overviews[overview.ID] = overview
	if _, ok := r.outputs[overview.ID]; !ok {
		r.outputs[overview.ID] = make(map[string]domain.ExampleOutput)
	}
	return nil
}

// RunOverview returns the overview or nil when it does not exist.
func (r *RunRepository) RunOverview(_ context.Context, id string) (*domain.RunOverview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	overview, ok := r.overviews[id]
	if !ok {
		return nil, nil
	}
	return &overview, nil
}

// RunOverviewIDs returns all run IDs, sorted.
func (r *RunRepository) RunOverviewIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.overviews)), nil
}

// StoreExampleOutput stores or replaces the output of one example.
func (r *RunRepository) StoreExampleOutput(_ context.Context, output domain.ExampleOutput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	outputs, ok := r.outputs[output.RunID]
	if !ok {
		outputs = make(map[string]domain.ExampleOutput)
		r.outputs[output.RunID] = outputs
	}
	outputs[output.ExampleID] = output
	return nil
}

// ExampleOutputs returns the outputs of a run sorted by example ID.
func (r *RunRepository) ExampleOutputs(_ context.Context, runID string) ([]domain.ExampleOutput, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	outputs, ok := r.outputs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	result := slices.Collect(maps.Values(outputs))
	slices.SortFunc(result, func(a, b domain.ExampleOutput) int { return cmp.Compare(a.ExampleID, b.ExampleID) })
	return result, nil
}

// ExampleOutput returns one output or nil when it does not exist.
func (r *RunRepository) ExampleOutput(_ context.Context, runID, exampleID string) (*domain.ExampleOutput, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	output, ok := r.outputs[runID][exampleID]
	if !ok {
		return nil, nil
	}
	return &output, nil
}
