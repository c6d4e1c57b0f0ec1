package driven

import (
	"context"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// DatasetRepository persists datasets and their examples.
type DatasetRepository interface {
	// CreateDataset stores a dataset together with its examples.
	// Every example must already carry an ID.
	CreateDataset(ctx context.Context, dataset domain.Dataset, examples []domain.StoredExample) error

	// Dataset returns the dataset, or nil when it does not exist.
	Dataset(ctx context.Context, id string) (*domain.Dataset, error)

	// DatasetIDs returns all dataset IDs in ascending order.
	DatasetIDs(ctx context.Context) ([]string, error)

	// Examples returns all examples of a dataset sorted by example ID.
	// Returns domain.ErrNotFound for an unknown dataset.
	Examples(ctx context.Context, datasetID string) ([]domain.StoredExample, error)

	// Example returns a single example, or nil when it does not exist.
	Example(ctx context.Context, datasetID, exampleID string) (*domain.StoredExample, error)

	// DeleteDataset removes a dataset and its examples. Unknown IDs are ignored.
	DeleteDataset(ctx context.Context, id string) error
}
