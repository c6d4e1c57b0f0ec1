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

// Ensure DatasetRepository implements the interface.
var _ driven.DatasetRepository = (*DatasetRepository)(nil)

// DatasetRepository is an in-memory implementation of driven.DatasetRepository.
type DatasetRepository struct {
	mu       sync.RWMutex
	datasets map[string]domain.Dataset
	examples map[string][]domain.StoredExample
}

// NewDatasetRepository creates a new in-memory dataset repository.
func NewDatasetRepository() *DatasetRepository {
	return &DatasetRepository{
		datasets: make(map[string]domain.Dataset),
		examples: make(map[string][]domain.StoredExample),
	}
}

// CreateDataset stores a dataset with its examples, sorted by example ID.
func (r *DatasetRepository) CreateDataset(
	_ context.Context, dataset domain.Dataset, examples []domain.StoredExample,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.datasets[dataset.ID]; ok {
		return fmt.Errorf("dataset %s: %w", dataset.ID, domain.ErrAlreadyExists)
	}
	sorted := slices.Clone(examples)
	slices.SortFunc(sorted, func(a, b domain.StoredExample) int { return cmp.Compare(a.ID, b.ID) })
	r.datasets[dataset.ID] = dataset
	r.examples[dataset.ID] = sorted
	return nil
}

// Dataset returns the dataset or nil when it does not exist.
func (r *DatasetRepository) Dataset(_ context.Context, id string) (*domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dataset, ok := r.datasets[id]
	if !ok {
		return nil, nil
	}
	return &dataset, nil
}

// DatasetIDs returns all dataset IDs, sorted.
func (r *DatasetRepository) DatasetIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.datasets)), nil
}

// Examples returns the examples of a dataset sorted by ID.
func (r *DatasetRepository) Examples(_ context.Context, datasetID string) ([]domain.StoredExample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	examples, ok := r.examples[datasetID]
	if !ok {
		return nil, fmt.Errorf("dataset %s: %w", datasetID, domain.ErrNotFound)
	}
	return slices.Clone(examples), nil
}

// Example returns one example or nil when either ID is unknown.
func (r *DatasetRepository) Example(_ context.Context, datasetID, exampleID string) (*domain.StoredExample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, example := range r.examples[datasetID] {
		if example.ID == exampleID {
			return &example, nil
		}
	}
	return nil, nil
}

// DeleteDataset removes a dataset. Deleting an unknown dataset is a no-op.
func (r *DatasetRepository) DeleteDataset(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.datasets, id)
	delete(r.examples, id)
	return nil
}
