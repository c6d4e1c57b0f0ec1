package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

// Ensure DatasetService implements the interface.
var _ driving.DatasetService = (*DatasetService)(nil)

// DatasetService manages evaluation datasets.
type DatasetService struct {
	repo driven.DatasetRepository
}

// NewDatasetService creates a new dataset service.
func NewDatasetService(repo driven.DatasetRepository) *DatasetService {
	return &DatasetService{repo: repo}
}

// Create stores a new dataset. Examples without an ID get a generated one;
// duplicate example IDs are rejected.
func (s *DatasetService) Create(ctx context.Context, name string, examples []domain.StoredExample) (*domain.Dataset, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: dataset name is required", domain.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(examples))
	stored := make([]domain.StoredExample, len(examples))
	for i, example := range examples {
		if example.ID == "" {
			example.ID = uuid.NewString()
		}
		if seen[example.ID] {
			return nil, fmt.Errorf("%w: duplicate example id %s", domain.ErrInvalidInput, example.ID)
		}
		seen[example.ID] = true
		stored[i] = example
	}

	dataset := domain.Dataset{ID: uuid.NewString(), Name: name}
	if err := s.repo.CreateDataset(ctx, dataset, stored); err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	return &dataset, nil
}

// List returns all datasets sorted by name.
func (s *DatasetService) List(ctx context.Context) ([]domain.Dataset, error) {
	ids, err := s.repo.DatasetIDs(ctx)
	if err != nil {
		return nil, err
	}
	datasets := make([]domain.Dataset, 0, len(ids))
	for _, id := range ids {
		dataset, err := s.repo.Dataset(ctx, id)
		if err != nil {
			return nil, err
		}
		if dataset != nil {
			datasets = append(datasets, *dataset)
		}
	}
	slices.SortFunc(datasets, func(a, b domain.Dataset) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return datasets, nil
}

// Get retrieves a dataset by ID.
func (s *DatasetService) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	dataset, err := s.repo.Dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	if dataset == nil {
		return nil, fmt.Errorf("dataset %s: %w", id, domain.ErrNotFound)
	}
	return dataset, nil
}

// Examples returns the examples of a dataset.
func (s *DatasetService) Examples(ctx context.Context, id string) ([]domain.StoredExample, error) {
	return s.repo.Examples(ctx, id)
}

// Delete removes a dataset and its examples.
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteDataset(ctx, id)
}
