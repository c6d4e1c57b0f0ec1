package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

// Ensure EvaluationService implements the interface.
var _ driving.EvaluationService = (*EvaluationService)(nil)

// EvaluationService benchmarks keyword extraction against datasets and
// optionally hands runs to Argilla for human rating.
type EvaluationService struct {
	extract     *KeywordExtract
	runner      *Runner
	evaluator   *Evaluator
	argilla     *ArgillaEvaluator
	runs        driven.RunRepository
	evaluations driven.AsyncEvaluationRepository
}

// NewEvaluationService creates a new evaluation service. argilla may be nil,
// in which case the rating operations fail with ErrArgillaUnavailable.
func NewEvaluationService(
	extract *KeywordExtract,
	runner *Runner,
	evaluator *Evaluator,
	argilla *ArgillaEvaluator,
	runs driven.RunRepository,
	evaluations driven.AsyncEvaluationRepository,
) *EvaluationService {
	return &EvaluationService{
		extract:     extract,
		runner:      runner,
		evaluator:   evaluator,
		argilla:     argilla,
		runs:        runs,
		evaluations: evaluations,
	}
}

// RunKeywords runs keyword extraction over a dataset of keyword examples.
func (s *EvaluationService) RunKeywords(ctx context.Context, datasetID, description string) (*domain.RunOverview, error) {
	return RunDataset(ctx, s.runner, KeywordExtractTaskName,
		Task[KeywordExtractInput, KeywordExtractOutput](s.extract), datasetID, description)
}

// EvaluateKeywords compares the keywords of a run with the expected ones.
func (s *EvaluationService) EvaluateKeywords(
	ctx context.Context, description string, runIDs ...string,
) (*domain.EvaluationOverview, error) {
	return Evaluate(ctx, s.evaluator,
		EvaluationLogic[KeywordExtractInput, KeywordExtractOutput, []string, KeywordEvaluation](KeywordEvaluationLogic{}),
		description, runIDs...)
}

// SubmitKeywordRatings submits a run to Argilla for human rating.
func (s *EvaluationService) SubmitKeywordRatings(
	ctx context.Context, description string, runIDs ...string,
) (*domain.PartialEvaluationOverview, error) {
	if s.argilla == nil {
		return nil, domain.ErrArgillaUnavailable
	}
	return SubmitToArgilla(ctx, s.argilla,
		ArgillaEvaluationLogic[KeywordExtractInput, KeywordExtractOutput, []string, KeywordRating](KeywordRatingLogic{}),
		description, runIDs...)
}

// RetrieveKeywordRatings collects the ratings submitted so far.
func (s *EvaluationService) RetrieveKeywordRatings(ctx context.Context, partialID string) (*domain.EvaluationOverview, error) {
	if s.argilla == nil {
		return nil, domain.ErrArgillaUnavailable
	}
	return RetrieveFromArgilla[KeywordRating](ctx, s.argilla, KeywordRatingLogic{}, partialID)
}

// SplitRatingDataset splits the Argilla dataset of a submission among raters.
func (s *EvaluationService) SplitRatingDataset(ctx context.Context, partialID string, nSplits int) error {
	if s.argilla == nil {
		return domain.ErrArgillaUnavailable
	}
	return SplitArgillaDataset(ctx, s.argilla, partialID, nSplits)
}

// Runs returns all run overviews, oldest first.
func (s *EvaluationService) Runs(ctx context.Context) ([]domain.RunOverview, error) {
	ids, err := s.runs.RunOverviewIDs(ctx)
	if err != nil {
		return nil, err
	}
	overviews, err := loadAll(ctx, ids, s.runs.RunOverview)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(overviews, func(a, b domain.RunOverview) int {
		return a.StartDate.Compare(b.StartDate)
	})
	return overviews, nil
}

// Evaluations returns all finished evaluation overviews, oldest first.
func (s *EvaluationService) Evaluations(ctx context.Context) ([]domain.EvaluationOverview, error) {
	ids, err := s.evaluations.EvaluationOverviewIDs(ctx)
	if err != nil {
		return nil, err
	}
	overviews, err := loadAll(ctx, ids, s.evaluations.EvaluationOverview)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(overviews, func(a, b domain.EvaluationOverview) int {
		return a.StartDate.Compare(b.StartDate)
	})
	return overviews, nil
}

// PartialEvaluations returns all submissions awaiting ratings, oldest first.
func (s *EvaluationService) PartialEvaluations(ctx context.Context) ([]domain.PartialEvaluationOverview, error) {
	ids, err := s.evaluations.PartialEvaluationOverviewIDs(ctx)
	if err != nil {
		return nil, err
	}
	overviews, err := loadAll(ctx, ids, s.evaluations.PartialEvaluationOverview)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(overviews, func(a, b domain.PartialEvaluationOverview) int {
		return a.StartDate.Compare(b.StartDate)
	})
	return overviews, nil
}

// Evaluation returns an evaluation overview with its example evaluations.
func (s *EvaluationService) Evaluation(
	ctx context.Context, id string,
) (*domain.EvaluationOverview, []domain.ExampleEvaluation, error) {
	overview, err := s.evaluations.EvaluationOverview(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if overview == nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrEvaluationNotFound, id)
	}
	evaluations, err := s.evaluations.ExampleEvaluations(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return overview, evaluations, nil
}

// loadAll fetches every id with get and skips ids that vanished meanwhile.
func loadAll[T any](ctx context.Context, ids []string, get func(context.Context, string) (*T, error)) ([]T, error) {
	items := make([]T, 0, len(ids))
	for _, id := range ids {
		item, err := get(ctx, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, nil
}
