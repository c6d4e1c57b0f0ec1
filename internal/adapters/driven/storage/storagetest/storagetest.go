// Package storagetest holds behaviour tests shared by every repository
// implementation. Each storage package runs them against its own constructor.
package storagetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

func storedExample(t *testing.T, id, input string, expected []string) domain.StoredExample {
	t.Helper()
	stored, err := domain.Example[string, []string]{ID: id, Input: input, ExpectedOutput: expected}.Encode()
	require.NoError(t, err)
	return stored
}

// DatasetRepository tests a driven.DatasetRepository.
func DatasetRepository(t *testing.T, newRepo func(t *testing.T) driven.DatasetRepository) {
	ctx := context.Background()

	t.Run("create and read", func(t *testing.T) {
		repo := newRepo(t)
		dataset := domain.Dataset{ID: "ds-1", Name: "keywords"}
		examples := []domain.StoredExample{
			storedExample(t, "b", "second", []string{"two"}),
			storedExample(t, "a", "first", []string{"one"}),
		}

		require.NoError(t, repo.CreateDataset(ctx, dataset, examples))

		got, err := repo.Dataset(ctx, "ds-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, dataset, *got)

		stored, err := repo.Examples(ctx, "ds-1")
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, "a", stored[0].ID)
		assert.Equal(t, "b", stored[1].ID)

		decoded, err := domain.DecodeExample[string, []string](stored[0])
		require.NoError(t, err)
		assert.Equal(t, "first", decoded.Input)
		assert.Equal(t, []string{"one"}, decoded.ExpectedOutput)

		example, err := repo.Example(ctx, "ds-1", "b")
		require.NoError(t, err)
		require.NotNil(t, example)
		assert.JSONEq(t, `"second"`, string(example.Input))
	})

	t.Run("duplicate dataset", func(t *testing.T) {
		repo := newRepo(t)
		dataset := domain.Dataset{ID: "ds-1", Name: "keywords"}
		require.NoError(t, repo.CreateDataset(ctx, dataset, nil))

		err := repo.CreateDataset(ctx, dataset, nil)

		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})

	t.Run("absent values", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateDataset(ctx, domain.Dataset{ID: "ds-1", Name: "empty"}, nil))

		dataset, err := repo.Dataset(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, dataset)

		example, err := repo.Example(ctx, "ds-1", "missing")
		require.NoError(t, err)
		assert.Nil(t, example)

		examples, err := repo.Examples(ctx, "ds-1")
		require.NoError(t, err)
		assert.Empty(t, examples)

		_, err = repo.Examples(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ids sorted and delete", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []string{"c", "a", "b"} {
			require.NoError(t, repo.CreateDataset(ctx, domain.Dataset{ID: id, Name: id},
				[]domain.StoredExample{storedExample(t, "x", "text", nil)}))
		}

		ids, err := repo.DatasetIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, ids)

		require.NoError(t, repo.DeleteDataset(ctx, "b"))
		require.NoError(t, repo.DeleteDataset(ctx, "missing"))

		ids, err = repo.DatasetIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, ids)
		_, err = repo.Examples(ctx, "b")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// RunRepository tests a driven.RunRepository.
func RunRepository(t *testing.T, newRepo func(t *testing.T) driven.RunRepository) {
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("overview round trip", func(t *testing.T) {
		repo := newRepo(t)
		overview := domain.RunOverview{
			ID:                     "run-1",
			DatasetID:              "ds-1",
			StartDate:              start,
			EndDate:                start.Add(time.Minute),
			SuccessfulExampleCount: 2,
			FailedExampleCount:     1,
			Description:            "baseline",
		}

		require.NoError(t, repo.StoreRunOverview(ctx, overview))

		got, err := repo.RunOverview(ctx, "run-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, overview.ID, got.ID)
		assert.Equal(t, overview.DatasetID, got.DatasetID)
		assert.True(t, overview.StartDate.Equal(got.StartDate))
		assert.True(t, overview.EndDate.Equal(got.EndDate))
		assert.Equal(t, 2, got.SuccessfulExampleCount)
		assert.Equal(t, 1, got.FailedExampleCount)
		assert.Equal(t, "baseline", got.Description)

		missing, err := repo.RunOverview(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("outputs sorted by example", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.StoreRunOverview(ctx, domain.RunOverview{ID: "run-1", DatasetID: "ds-1"}))
		require.NoError(t, repo.StoreExampleOutput(ctx, domain.ExampleOutput{
			RunID: "run-1", ExampleID: "b", Output: json.RawMessage(`{"keywords":["go"]}`),
		}))
		require.NoError(t, repo.StoreExampleOutput(ctx, domain.ExampleOutput{
			RunID: "run-1", ExampleID: "a", Error: "model unavailable",
		}))

		outputs, err := repo.ExampleOutputs(ctx, "run-1")
		require.NoError(t, err)
		require.Len(t, outputs, 2)
		assert.Equal(t, "a", outputs[0].ExampleID)
		assert.True(t, outputs[0].Failed())
		assert.Equal(t, "b", outputs[1].ExampleID)
		assert.JSONEq(t, `{"keywords":["go"]}`, string(outputs[1].Output))

		output, err := repo.ExampleOutput(ctx, "run-1", "b")
		require.NoError(t, err)
		require.NotNil(t, output)
		assert.False(t, output.Failed())

		output, err = repo.ExampleOutput(ctx, "run-1", "missing")
		require.NoError(t, err)
		assert.Nil(t, output)
	})

	t.Run("unknown run", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.ExampleOutputs(ctx, "missing")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ids sorted", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []string{"run-b", "run-a"} {
			require.NoError(t, repo.StoreRunOverview(ctx, domain.RunOverview{ID: id, DatasetID: "ds"}))
		}

		ids, err := repo.RunOverviewIDs(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"run-a", "run-b"}, ids)
	})
}

// EvaluationRepository tests a driven.AsyncEvaluationRepository.
func EvaluationRepository(t *testing.T, newRepo func(t *testing.T) driven.AsyncEvaluationRepository) {
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("overview creates empty list", func(t *testing.T) {
		repo := newRepo(t)
		overview := domain.EvaluationOverview{
			ID:             "eval-1",
			RunOverviewIDs: []string{"run-1", "run-2"},
			StartDate:      start,
			EndDate:        start.Add(time.Hour),
			Description:    "precision",
		}

		require.NoError(t, repo.StoreEvaluationOverview(ctx, overview))

		got, err := repo.EvaluationOverview(ctx, "eval-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []string{"run-1", "run-2"}, got.RunOverviewIDs)
		assert.Equal(t, "precision", got.Description)

		evaluations, err := repo.ExampleEvaluations(ctx, "eval-1")
		require.NoError(t, err)
		assert.Empty(t, evaluations)
	})

	t.Run("unknown evaluation", func(t *testing.T) {
		repo := newRepo(t)

		overview, err := repo.EvaluationOverview(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, overview)

		_, err = repo.ExampleEvaluations(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrEvaluationNotFound)
		assert.Contains(t, err.Error(), "repository does not contain an evaluation with id: missing")

		evaluation, err := repo.ExampleEvaluation(ctx, "missing", "a")
		require.ErrorIs(t, err, domain.ErrEvaluationNotFound)
		assert.Nil(t, evaluation)
	})

	t.Run("known evaluation without the example", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.StoreEvaluationOverview(ctx, domain.EvaluationOverview{ID: "eval-1"}))

		evaluation, err := repo.ExampleEvaluation(ctx, "eval-1", "a")
		require.NoError(t, err)
		assert.Nil(t, evaluation)

		require.NoError(t, repo.StorePartialEvaluationOverview(ctx, domain.PartialEvaluationOverview{ID: "eval-2"}))
		evaluation, err = repo.ExampleEvaluation(ctx, "eval-2", "a")
		require.NoError(t, err)
		assert.Nil(t, evaluation)
	})

	t.Run("example evaluations", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.StoreEvaluationOverview(ctx, domain.EvaluationOverview{ID: "eval-1"}))

		type score struct {
			Value float64 `json:"value"`
		}
		good, err := domain.NewExampleEvaluation("eval-1", "b", score{Value: 0.5})
		require.NoError(t, err)
		require.NoError(t, repo.StoreExampleEvaluation(ctx, good))
		require.NoError(t, repo.StoreExampleEvaluation(ctx, domain.ExampleEvaluation{
			EvaluationID: "eval-1", ExampleID: "a", Error: "no output",
		}))

		evaluations, err := repo.ExampleEvaluations(ctx, "eval-1")
		require.NoError(t, err)
		require.Len(t, evaluations, 2)
		assert.Equal(t, "a", evaluations[0].ExampleID)
		assert.True(t, evaluations[0].Failed())

		got, err := repo.ExampleEvaluation(ctx, "eval-1", "b")
		require.NoError(t, err)
		require.NotNil(t, got)
		result, err := domain.DecodeResult[score](*got)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, result.Value, 1e-9)
	})

	t.Run("store overview keeps evaluations", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.StorePartialEvaluationOverview(ctx, domain.PartialEvaluationOverview{ID: "eval-1"}))
		require.NoError(t, repo.StoreExampleEvaluation(ctx, domain.ExampleEvaluation{
			EvaluationID: "eval-1", ExampleID: "a", Error: "skipped",
		}))

		require.NoError(t, repo.StoreEvaluationOverview(ctx, domain.EvaluationOverview{ID: "eval-1"}))

		evaluations, err := repo.ExampleEvaluations(ctx, "eval-1")
		require.NoError(t, err)
		assert.Len(t, evaluations, 1)
	})

	t.Run("partial overviews", func(t *testing.T) {
		repo := newRepo(t)
		partial := domain.PartialEvaluationOverview{
			ID:                       "eval-b",
			RunOverviewIDs:           []string{"run-1"},
			StartDate:                start,
			SubmittedEvaluationCount: 3,
			Description:              "human rating",
			ArgillaDatasetID:         "argilla-ds",
		}
		require.NoError(t, repo.StorePartialEvaluationOverview(ctx, partial))
		require.NoError(t, repo.StorePartialEvaluationOverview(ctx, domain.PartialEvaluationOverview{ID: "eval-a"}))

		got, err := repo.PartialEvaluationOverview(ctx, "eval-b")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 3, got.SubmittedEvaluationCount)
		assert.Equal(t, "argilla-ds", got.ArgillaDatasetID)
		assert.True(t, start.Equal(got.StartDate))

		missing, err := repo.PartialEvaluationOverview(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, missing)

		ids, err := repo.PartialEvaluationOverviewIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"eval-a", "eval-b"}, ids)

		evaluations, err := repo.ExampleEvaluations(ctx, "eval-b")
		require.NoError(t, err)
		assert.Empty(t, evaluations)

		overviewIDs, err := repo.EvaluationOverviewIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, overviewIDs)
	})
}
