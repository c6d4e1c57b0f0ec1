package driving

import (
	"context"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// EvaluationService runs and evaluates the keyword extraction benchmark.
type EvaluationService interface {
	// RunKeywords runs keyword extraction over every example of a dataset.
	RunKeywords(ctx context.Context, datasetID, description string) (*domain.RunOverview, error)

	// EvaluateKeywords grades the outputs of the given runs against the expected keywords.
	EvaluateKeywords(ctx context.Context, description string, runIDs ...string) (*domain.EvaluationOverview, error)

	// SubmitKeywordRatings sends the outputs of the given runs to Argilla for human rating.
	SubmitKeywordRatings(ctx context.Context, description string, runIDs ...string) (*domain.PartialEvaluationOverview, error)

	// RetrieveKeywordRatings collects submitted ratings and completes the evaluation.
	RetrieveKeywordRatings(ctx context.Context, partialID string) (*domain.EvaluationOverview, error)

	// SplitRatingDataset splits the Argilla dataset of a partial evaluation.
	SplitRatingDataset(ctx context.Context, partialID string, nSplits int) error

	// Runs returns all run overviews, oldest first.
	Runs(ctx context.Context) ([]domain.RunOverview, error)

	// Evaluations returns all evaluation overviews, oldest first.
	Evaluations(ctx context.Context) ([]domain.EvaluationOverview, error)

	// PartialEvaluations returns all pending evaluation overviews, oldest first.
	PartialEvaluations(ctx context.Context) ([]domain.PartialEvaluationOverview, error)

	// Evaluation returns an overview and its example evaluations.
	// Returns domain.ErrEvaluationNotFound if it does not exist.
	Evaluation(ctx context.Context, id string) (*domain.EvaluationOverview, []domain.ExampleEvaluation, error)
}
