package driving

import (
	"context"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// DatasetService manages evaluation datasets.
type DatasetService interface {
	// Create stores a new dataset. Examples without an ID get a random one.
	Create(ctx context.Context, name string, examples []domain.StoredExample) (*domain.Dataset, error)

	// List returns all datasets ordered by ID.
	List(ctx context.Context) ([]domain.Dataset, error)

	// Get returns a dataset by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Dataset, error)

	// Examples returns the examples of a dataset ordered by example ID.
	Examples(ctx context.Context, id string) ([]domain.StoredExample, error)

	// Delete removes a dataset and its examples.
	Delete(ctx context.Context, id string) error
}
