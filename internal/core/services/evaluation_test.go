package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

func newTestEvaluationService(t *testing.T, repos testRepos, argilla *mockArgillaClient) *EvaluationService {
	t.Helper()
	extract := newTestKeywordExtract(t, &mockModelClient{complete: keywordsFor(map[string]string{
		"computers": "computer",
		"cats":      "cat, pet",
	})})
	runner := NewRunner(repos.datasets, repos.runs, nil)
	evaluator := NewEvaluator(repos.datasets, repos.runs, repos.evaluations)
	var argillaEvaluator *ArgillaEvaluator
	if argilla != nil {
		argillaEvaluator = NewArgillaEvaluator(repos.datasets, repos.runs, repos.evaluations, argilla, "ws")
	}
	return NewEvaluationService(extract, runner, evaluator, argillaEvaluator, repos.runs, repos.evaluations)
}

func TestEvaluationService_RunAndEvaluate(t *testing.T) {
	repos := newTestRepos()
	datasetID := seedKeywordDataset(t, repos.datasets,
		keywordExample("a", "computers", "en", "computer"),
		keywordExample("b", "cats", "en", "cat"),
	)
	svc := newTestEvaluationService(t, repos, nil)
	ctx := context.Background()

	run, err := svc.RunKeywords(ctx, datasetID, "baseline")
	require.NoError(t, err)
	assert.Equal(t, 2, run.SuccessfulExampleCount)

	evaluation, err := svc.EvaluateKeywords(ctx, "baseline", run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, evaluation.SuccessfulEvaluationCount)

	overview, results, err := svc.Evaluation(ctx, evaluation.ID)
	require.NoError(t, err)
	assert.Equal(t, evaluation.ID, overview.ID)
	require.Len(t, results, 2)

	agg, err := AggregateKeywordEvaluations(results)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, agg.MeanPrecision, 1e-9)
	assert.InDelta(t, 1.0, agg.MeanRecall, 1e-9)

	runs, err := svc.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	evaluations, err := svc.Evaluations(ctx)
	require.NoError(t, err)
	require.Len(t, evaluations, 1)
}

func TestEvaluationService_UnknownEvaluation(t *testing.T) {
	svc := newTestEvaluationService(t, newTestRepos(), nil)

	_, _, err := svc.Evaluation(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrEvaluationNotFound)
}

func TestEvaluationService_WithoutArgilla(t *testing.T) {
	svc := newTestEvaluationService(t, newTestRepos(), nil)
	ctx := context.Background()

	_, err := svc.SubmitKeywordRatings(ctx, "", "run")
	assert.ErrorIs(t, err, domain.ErrArgillaUnavailable)
	_, err = svc.RetrieveKeywordRatings(ctx, "partial")
	assert.ErrorIs(t, err, domain.ErrArgillaUnavailable)
	assert.ErrorIs(t, svc.SplitRatingDataset(ctx, "partial", 2), domain.ErrArgillaUnavailable)
}

func TestEvaluationService_HumanRatings(t *testing.T) {
	repos := newTestRepos()
	datasetID := seedKeywordDataset(t, repos.datasets,
		keywordExample("a", "computers", "en", "computer"),
		keywordExample("b", "cats", "en", "cat"),
	)
	client := newMockArgillaClient()
	svc := newTestEvaluationService(t, repos, client)
	ctx := context.Background()

	run, err := svc.RunKeywords(ctx, datasetID, "")
	require.NoError(t, err)
	partial, err := svc.SubmitKeywordRatings(ctx, "rating", run.ID)
	require.NoError(t, err)
	require.NoError(t, svc.SplitRatingDataset(ctx, partial.ID, 2))

	partials, err := svc.PartialEvaluations(ctx)
	require.NoError(t, err)
	require.Len(t, partials, 1)
	assert.Equal(t, partial.ID, partials[0].ID)

	client.rate(partial.ArgillaDatasetID, func(domain.Record) (any, bool) { return 5, true })
	overview, err := svc.RetrieveKeywordRatings(ctx, partial.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.SuccessfulEvaluationCount)
	assert.Equal(t, 0, overview.FailedEvaluationCount)
}

func TestEvaluationService_ListsOldestFirst(t *testing.T) {
	repos := newTestRepos()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, repos.runs.StoreRunOverview(ctx, domain.RunOverview{ID: "a-new", StartDate: now}))
	require.NoError(t, repos.runs.StoreRunOverview(ctx, domain.RunOverview{ID: "b-old", StartDate: now.Add(-time.Hour)}))
	require.NoError(t, repos.evaluations.StoreEvaluationOverview(ctx, domain.EvaluationOverview{ID: "x-new", StartDate: now}))
	require.NoError(t, repos.evaluations.StoreEvaluationOverview(ctx, domain.EvaluationOverview{ID: "y-old", StartDate: now.Add(-time.Minute)}))
	svc := newTestEvaluationService(t, repos, nil)

	runs, err := svc.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b-old", runs[0].ID)
	assert.Equal(t, "a-new", runs[1].ID)

	evaluations, err := svc.Evaluations(ctx)
	require.NoError(t, err)
	require.Len(t, evaluations, 2)
	assert.Equal(t, "y-old", evaluations[0].ID)
}
