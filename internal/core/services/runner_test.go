package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/tracing"
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// testRepos bundles in-memory repositories for service tests.
type testRepos struct {
	datasets    *memory.DatasetRepository
	runs        *memory.RunRepository
	evaluations *memory.EvaluationRepository
}

func newTestRepos() testRepos {
	return testRepos{
		datasets:    memory.NewDatasetRepository(),
		runs:        memory.NewRunRepository(),
		evaluations: memory.NewEvaluationRepository(),
	}
}

// seedKeywordDataset stores a keyword dataset and returns its ID.
func seedKeywordDataset(t *testing.T, repo driven.DatasetRepository, examples ...KeywordExample) string {
	t.Helper()
	stored := make([]domain.StoredExample, len(examples))
	for i, example := range examples {
		var err error
		stored[i], err = example.Encode()
		require.NoError(t, err)
	}
	dataset := domain.Dataset{ID: "dataset-1", Name: "keywords"}
	require.NoError(t, repo.CreateDataset(context.Background(), dataset, stored))
	return dataset.ID
}

func keywordExample(id, text string, language domain.Language, expected ...string) KeywordExample {
	return KeywordExample{
		ID:             id,
		Input:          KeywordExtractInput{Chunk: domain.TextChunk(text), Language: language},
		ExpectedOutput: expected,
	}
}

func TestRunDataset_StoresOutputsAndFailures(t *testing.T) {
	repos := newTestRepos()
	datasetID := seedKeywordDataset(t, repos.datasets,
		keywordExample("a", "I really like my computer", "en", "computer"),
		keywordExample("b", "Ich mag Katzen", "de", "Katzen"),
		keywordExample("c", "Eu gosto de gatos", "pt", "gatos"),
	)
	client := &mockModelClient{complete: keywordsFor(map[string]string{
		"computer": "computer, liking",
		"Katzen":   "Katzen",
	})}
	extract := newTestKeywordExtract(t, client)
	metrics := newRecordingMetrics()
	tracer := tracing.NewInMemoryTracer()

	runner := NewRunner(repos.datasets, repos.runs, tracer)
	runner.SetMetrics(metrics)
	runner.SetConcurrency(2)

	overview, err := RunDataset(context.Background(), runner, KeywordExtractTaskName,
		Task[KeywordExtractInput, KeywordExtractOutput](extract), datasetID, "first run")
	require.NoError(t, err)

	assert.Equal(t, datasetID, overview.DatasetID)
	assert.Equal(t, 2, overview.SuccessfulExampleCount)
	assert.Equal(t, 1, overview.FailedExampleCount)
	assert.Equal(t, "first run", overview.Description)
	assert.False(t, overview.EndDate.Before(overview.StartDate))

	stored, err := repos.runs.RunOverview(context.Background(), overview.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, overview.ID, stored.ID)

	outputs, err := repos.runs.ExampleOutputs(context.Background(), overview.ID)
	require.NoError(t, err)
	require.Len(t, outputs, 3)

	var first KeywordExtractOutput
	require.NoError(t, json.Unmarshal(outputs[0].Output, &first))
	assert.Equal(t, []string{"computer", "liking"}, first.Keywords)
	assert.True(t, outputs[2].Failed())
	assert.Contains(t, outputs[2].Error, domain.ErrLanguageNotSupported.Error())

	assert.Equal(t, 3, metrics.taskRuns[KeywordExtractTaskName])
	assert.Equal(t, 1, metrics.taskFailures)
	assert.Len(t, tracer.Roots(), 3)
}

func TestRunDataset_UnknownDataset(t *testing.T) {
	repos := newTestRepos()
	runner := NewRunner(repos.datasets, repos.runs, nil)

	_, err := RunDataset(context.Background(), runner, "upper", Task[string, string](upper), "missing", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunDataset_UndecodableInput(t *testing.T) {
	repos := newTestRepos()
	require.NoError(t, repos.datasets.CreateDataset(context.Background(),
		domain.Dataset{ID: "d", Name: "numbers"},
		[]domain.StoredExample{{ID: "x", Input: json.RawMessage(`42`), ExpectedOutput: json.RawMessage(`null`)}}))
	runner := NewRunner(repos.datasets, repos.runs, nil)

	_, err := RunDataset(context.Background(), runner, "upper", Task[string, string](upper), "d", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode input of example x")
}

func TestRunDataset_RepositoryErrorAborts(t *testing.T) {
	repos := newTestRepos()
	datasetID := seedKeywordDataset(t, repos.datasets, keywordExample("a", "text", "en"))
	runs := &failingRunRepository{RunRepository: repos.runs, err: errors.New("disk full")}
	runner := NewRunner(repos.datasets, runs, nil)
	extract := newTestKeywordExtract(t, &mockModelClient{})

	_, err := RunDataset(context.Background(), runner, KeywordExtractTaskName,
		Task[KeywordExtractInput, KeywordExtractOutput](extract), datasetID, "")
	assert.ErrorContains(t, err, "disk full")
}

// failingRunRepository fails every StoreExampleOutput.
type failingRunRepository struct {
	*memory.RunRepository
	err error
}

func (f *failingRunRepository) StoreExampleOutput(context.Context, domain.ExampleOutput) error {
	return f.err
}
