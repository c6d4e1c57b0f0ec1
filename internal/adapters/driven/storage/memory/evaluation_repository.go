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

// Ensure EvaluationRepository implements the interface.
var _ driven.AsyncEvaluationRepository = (*EvaluationRepository)(nil)

// EvaluationRepository is an in-memory implementation of
// driven.AsyncEvaluationRepository.
type EvaluationRepository struct {
	mu          sync.RWMutex
	overviews   map[string]domain.EvaluationOverview
	partials    map[string]domain.PartialEvaluationOverview
	evaluations map[string][]domain.ExampleEvaluation
}

// NewEvaluationRepository creates a new in-memory evaluation repository.
func NewEvaluationRepository() *EvaluationRepository {
	return &EvaluationRepository{
		overviews:   make(map[string]domain.EvaluationOverview),
		partials:    make(map[string]domain.PartialEvaluationOverview),
		evaluations: make(map[string][]domain.ExampleEvaluation),
	}
}

// StoreEvaluationOverview stores or replaces an overview and makes sure an
// example evaluation list exists for it.
func (r *EvaluationRepository) StoreEvaluationOverview(_ context.Context, overview domain.EvaluationOverview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overviews[overview.ID] = overview
	r.ensureList(overview.ID)
	return nil
}

// EvaluationOverview returns the overview or nil when it does not exist.
func (r *EvaluationRepository) EvaluationOverview(_ context.Context, id string) (*domain.EvaluationOverview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	overview, ok := r.overviews[id]
	if !ok {
		return nil, nil
	}
	return &overview, nil
}

// EvaluationOverviewIDs returns all evaluation IDs, sorted.
func (r *EvaluationRepository) EvaluationOverviewIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.overviews)), nil
}

// StoreExampleEvaluation appends an example evaluation.
func (r *EvaluationRepository) StoreExampleEvaluation(_ context.Context, evaluation domain.ExampleEvaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluations[evaluation.EvaluationID] = append(r.evaluations[evaluation.EvaluationID], evaluation)
	return nil
}

// ExampleEvaluation returns the first evaluation of an example, or nil when
// the example was not evaluated. An unknown ID is ErrEvaluationNotFound.
func (r *EvaluationRepository) ExampleEvaluation(
	_ context.Context, evaluationID, exampleID string,
) (*domain.ExampleEvaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	evaluations, ok := r.evaluations[evaluationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEvaluationNotFound, evaluationID)
	}
	for _, evaluation := range evaluations {
		if evaluation.ExampleID == exampleID {
			return &evaluation, nil
		}
	}
	return nil, nil
}

// ExampleEvaluations returns the evaluations of an evaluation sorted by
// example ID. An unknown ID is ErrEvaluationNotFound.
func (r *EvaluationRepository) ExampleEvaluations(
	_ context.Context, evaluationID string,
) ([]domain.ExampleEvaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	evaluations, ok := r.evaluations[evaluationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEvaluationNotFound, evaluationID)
	}
	result := slices.Clone(evaluations)
	slices.SortStableFunc(result, func(a, b domain.ExampleEvaluation) int {
		return cmp.Compare(a.ExampleID, b.ExampleID)
	})
	return result, nil
}

// StorePartialEvaluationOverview stores or replaces a partial overview and
// makes sure an example evaluation list exists for it.
func (r *EvaluationRepository) StorePartialEvaluationOverview(
	_ context.Context, overview domain.PartialEvaluationOverview,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partials[overview.ID] = overview
	r.ensureList(overview.ID)
	return nil
}

// PartialEvaluationOverview returns the partial overview or nil.
func (r *EvaluationRepository) PartialEvaluationOverview(
	_ context.Context, id string,
) (*domain.PartialEvaluationOverview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	overview, ok := r.partials[id]
	if !ok {
		return nil, nil
	}
	return &overview, nil
}

// PartialEvaluationOverviewIDs returns all partial evaluation IDs, sorted.
func (r *EvaluationRepository) PartialEvaluationOverviewIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.partials)), nil
}

// ensureList creates an empty evaluation list (caller must hold lock).
func (r *EvaluationRepository) ensureList(id string) {
	if _, ok := r.evaluations[id]; !ok {
		r.evaluations[id] = []domain.ExampleEvaluation{}
	}
}
