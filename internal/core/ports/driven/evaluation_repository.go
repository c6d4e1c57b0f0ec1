package driven

import (
	"context"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// EvaluationRepository persists evaluation overviews and per-example results.
type EvaluationRepository interface {
	// StoreEvaluationOverview stores or replaces an overview. Afterwards
	// ExampleEvaluations succeeds for its ID even when no result was stored.
	StoreEvaluationOverview(ctx context.Context, overview domain.EvaluationOverview) error

	// EvaluationOverview returns the overview, or nil when it does not exist.
	EvaluationOverview(ctx context.Context, id string) (*domain.EvaluationOverview, error)

	// EvaluationOverviewIDs returns all overview IDs in ascending order.
	EvaluationOverviewIDs(ctx context.Context) ([]string, error)

	// StoreExampleEvaluation appends an example evaluation.
	StoreExampleEvaluation(ctx context.Context, evaluation domain.ExampleEvaluation) error

	// ExampleEvaluation returns the first evaluation of the example, or nil
	// when the example was not evaluated. Returns domain.ErrEvaluationNotFound
	// for an unknown evaluation.
	ExampleEvaluation(ctx context.Context, evaluationID, exampleID string) (*domain.ExampleEvaluation, error)

	// ExampleEvaluations returns all example evaluations sorted by example ID.
	// Returns domain.ErrEvaluationNotFound for an unknown evaluation.
	ExampleEvaluations(ctx context.Context, evaluationID string) ([]domain.ExampleEvaluation, error)
}

// AsyncEvaluationRepository additionally tracks evaluations that were
// submitted for asynchronous grading and are not yet complete.
type AsyncEvaluationRepository interface {
	EvaluationRepository

	// StorePartialEvaluationOverview stores or replaces a partial overview.
	StorePartialEvaluationOverview(ctx context.Context, overview domain.PartialEvaluationOverview) error

	// PartialEvaluationOverview returns the partial overview, or nil when it does not exist.
	PartialEvaluationOverview(ctx context.Context, id string) (*domain.PartialEvaluationOverview, error)

	// PartialEvaluationOverviewIDs returns all partial overview IDs in ascending order.
	PartialEvaluationOverviewIDs(ctx context.Context) ([]string, error)
}
