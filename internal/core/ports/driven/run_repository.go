package driven

import (
	"context"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// RunRepository persists task runs over datasets.
type RunRepository interface {
	// StoreRunOverview stores or replaces a run overview.
	StoreRunOverview(ctx context.Context, overview domain.RunOverview) error

	// RunOverview returns the overview, or nil when it does not exist.
	RunOverview(ctx context.Context, id string) (*domain.RunOverview, error)

	// RunOverviewIDs returns all run IDs in ascending order.
	RunOverviewIDs(ctx context.Context) ([]string, error)

	// StoreExampleOutput stores the output of one example.
	StoreExampleOutput(ctx context.Context, output domain.ExampleOutput) error

	// ExampleOutputs returns all outputs of a run sorted by example ID.
	// Returns domain.ErrNotFound for an unknown run.
	ExampleOutputs(ctx context.Context, runID string) ([]domain.ExampleOutput, error)

	// ExampleOutput returns the output of one example, or nil when it does not exist.
	ExampleOutput(ctx context.Context, runID, exampleID string) (*domain.ExampleOutput, error)
}
