package driven

import (
	"context"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// ArgillaClient manages human feedback datasets on an Argilla server.
type ArgillaClient interface {
	// EnsureWorkspaceExists creates the workspace unless it exists and returns its ID.
	EnsureWorkspaceExists(ctx context.Context, name string) (string, error)

	// DeleteWorkspace deletes a workspace together with all of its datasets.
	DeleteWorkspace(ctx context.Context, workspaceID string) error

	// EnsureDatasetExists creates and publishes a dataset unless it exists and returns its ID.
	EnsureDatasetExists(
		ctx context.Context, workspaceID, name string, fields []domain.Field, questions []domain.Question,
	) (string, error)

	// AddRecord adds a record to the dataset.
	AddRecord(ctx context.Context, datasetID string, record domain.RecordData) error

	// Records returns all records of the dataset.
	Records(ctx context.Context, datasetID string) ([]domain.Record, error)

	// CreateEvaluation submits a response for a record.
	CreateEvaluation(ctx context.Context, evaluation domain.ArgillaEvaluation) error

	// Evaluations returns all submitted responses of the dataset.
	Evaluations(ctx context.Context, datasetID string) ([]domain.ArgillaEvaluation, error)

	// SplitDataset assigns every record a "split" metadata value in [0, nSplits).
	SplitDataset(ctx context.Context, datasetID string, nSplits int) error
}
