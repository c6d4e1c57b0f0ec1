package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
	"github.com/custodia-labs/intelligence-layer/internal/core/services"
)

// fakeModelClient answers prompts containing a known text with a fixed completion.
type fakeModelClient struct {
	answers map[string]string
}

var _ driven.ModelClient = (*fakeModelClient)(nil)

func (f *fakeModelClient) Complete(_ context.Context, model string, input domain.CompleteInput) (domain.CompleteOutput, error) {
	for text, answer := range f.answers {
		if strings.Contains(input.Prompt, text) {
			return domain.CompleteOutput{
				ModelVersion:       model,
				Completions:        []domain.CompletionResult{{Completion: answer}},
				NumTokensGenerated: len(strings.Fields(answer)),
			}, nil
		}
	}
	return domain.CompleteOutput{}, fmt.Errorf("unexpected prompt %q", input.Prompt)
}

func (f *fakeModelClient) Explain(_ context.Context, model string, input domain.ExplainInput) (domain.ExplainOutput, error) {
	return domain.ExplainOutput{
		ModelVersion: model,
		Explanations: []domain.Explanation{{
			Target: input.Target,
			Items: []domain.ExplanationItem{{
				Type:   "text",
				Scores: []domain.TextScore{{Start: 0, Length: 5, Score: 0.5}},
			}},
		}},
	}, nil
}

func (f *fakeModelClient) Models(context.Context) ([]domain.ModelInfo, error) {
	return []domain.ModelInfo{{Name: domain.DefaultModelName, MaxContextSize: 2048}}, nil
}

func (f *fakeModelClient) Tokenize(_ context.Context, _, text string) (domain.Encoding, error) {
	tokens := strings.Fields(text)
	ids := make([]int, len(tokens))
	for i := range ids {
		ids[i] = 100 + i
	}
	return domain.Encoding{Tokens: tokens, IDs: ids}, nil
}

// fakeArgillaClient keeps records in memory. Nothing is ever rated.
type fakeArgillaClient struct {
	mu      sync.Mutex
	records map[string][]domain.Record
	splits  map[string]int
}

var _ driven.ArgillaClient = (*fakeArgillaClient)(nil)

func newFakeArgillaClient() *fakeArgillaClient {
	return &fakeArgillaClient{records: make(map[string][]domain.Record), splits: make(map[string]int)}
}

func (f *fakeArgillaClient) EnsureWorkspaceExists(_ context.Context, name string) (string, error) {
	return name, nil
}

func (f *fakeArgillaClient) DeleteWorkspace(context.Context, string) error { return nil }

func (f *fakeArgillaClient) EnsureDatasetExists(
	_ context.Context, workspaceID, name string, _ []domain.Field, _ []domain.Question,
) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := workspaceID + "/" + name
	if _, ok := f.records[id]; !ok {
		f.records[id] = []domain.Record{}
	}
	return id, nil
}

func (f *fakeArgillaClient) AddRecord(_ context.Context, datasetID string, record domain.RecordData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := f.records[datasetID]
	f.records[datasetID] = append(records, domain.Record{RecordData: record, ID: fmt.Sprintf("rec-%d", len(records))})
	return nil
}

func (f *fakeArgillaClient) Records(_ context.Context, datasetID string) ([]domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Record(nil), f.records[datasetID]...), nil
}

func (f *fakeArgillaClient) CreateEvaluation(context.Context, domain.ArgillaEvaluation) error { return nil }

func (f *fakeArgillaClient) Evaluations(context.Context, string) ([]domain.ArgillaEvaluation, error) {
	return nil, nil
}

func (f *fakeArgillaClient) SplitDataset(_ context.Context, datasetID string, nSplits int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[datasetID]; !ok {
		return fmt.Errorf("dataset %s: %w", datasetID, domain.ErrNotFound)
	}
	f.splits[datasetID] = nSplits
	return nil
}

// testEnv exposes the services wired by setupTestServices.
type testEnv struct {
	settings    *services.SettingsService
	datasets    *services.DatasetService
	evaluations *services.EvaluationService
	argilla     *fakeArgillaClient
}

// setupTestServices wires real services over in-memory repositories and
// fake clients. The returned cleanup restores the previous services and
// resets command flags.
func setupTestServices() (*testEnv, func()) {
	oldSettings := settingsService
	oldDatasets := datasetService
	oldModel := modelService
	oldKeywords := keywordService
	oldEvaluations := evaluationService
	oldMetrics := metricsHandler

	client := &fakeModelClient{answers: map[string]string{
		"I really like my computer": "computer, hardware",
		"My cat sleeps all day":     "cat, sleep",
		"capital of France":         "Paris",
	}}
	model, err := services.NewControlModel(domain.DefaultModelName, client)
	if err != nil {
		panic(err)
	}
	extract := services.NewKeywordExtract(model)

	datasets := memory.NewDatasetRepository()
	runs := memory.NewRunRepository()
	evaluations := memory.NewEvaluationRepository()
	argilla := newFakeArgillaClient()

	env := &testEnv{
		settings: services.NewSettingsService(memory.NewConfigStore()),
		datasets: services.NewDatasetService(datasets),
		evaluations: services.NewEvaluationService(
			extract,
			services.NewRunner(datasets, runs, nil),
			services.NewEvaluator(datasets, runs, evaluations),
			services.NewArgillaEvaluator(datasets, runs, evaluations, argilla, "ws"),
			runs,
			evaluations,
		),
		argilla: argilla,
	}

	SetServices(Services{
		Settings:    env.settings,
		Datasets:    env.datasets,
		Model:       services.NewModelService(client, domain.DefaultModelName),
		Keywords:    extract,
		Evaluations: env.evaluations,
	})

	return env, func() {
		settingsService = oldSettings
		datasetService = oldDatasets
		modelService = oldModel
		keywordService = oldKeywords
		evaluationService = oldEvaluations
		metricsHandler = oldMetrics
		resetFlags()
	}
}

func resetFlags() {
	datasetName = ""
	datasetJSON = false
	runDescription = ""
	runJSON = false
	evaluationDescription = ""
	evaluationJSON = false
	argillaDescription = ""
	keywordLanguage = "en"
	keywordTrace = false
	modelName = ""
	maxTokens = 64
	temperature = 0
	stopSequences = nil
	instructInput = ""
	granularity = string(domain.GranularityWord)
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
