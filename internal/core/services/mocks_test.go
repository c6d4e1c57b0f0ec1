package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockModelClient implements driven.ModelClient for testing.
// complete decides the completion for each prompt; it defaults to echoing nothing.
type mockModelClient struct {
	mu          sync.Mutex
	complete    func(model string, input domain.CompleteInput) (string, error)
	models      []domain.ModelInfo
	modelsErr   error
	modelsCalls int
	requests    []domain.CompleteInput
	explainErr  error
}

var _ driven.ModelClient = (*mockModelClient)(nil)

func (m *mockModelClient) Complete(_ context.Context, model string, input domain.CompleteInput) (domain.CompleteOutput, error) {
	m.mu.Lock()
	m.requests = append(m.requests, input)
	complete := m.complete
	m.mu.Unlock()

	text := ""
	if complete != nil {
		var err error
		text, err = complete(model, input)
		if err != nil {
			return domain.CompleteOutput{}, err
		}
	}
	return domain.CompleteOutput{
		ModelVersion:       model,
		Completions:        []domain.CompletionResult{{Completion: text, FinishReason: "end_of_text"}},
		NumTokensGenerated: len(strings.Fields(text)),
	}, nil
}

func (m *mockModelClient) Explain(_ context.Context, model string, input domain.ExplainInput) (domain.ExplainOutput, error) {
	if m.explainErr != nil {
		return domain.ExplainOutput{}, m.explainErr
	}
	return domain.ExplainOutput{
		ModelVersion: model,
		Explanations: []domain.Explanation{{Target: input.Target}},
	}, nil
}

func (m *mockModelClient) Models(context.Context) ([]domain.ModelInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelsCalls++
	return m.models, m.modelsErr
}

func (m *mockModelClient) Tokenize(_ context.Context, _, text string) (domain.Encoding, error) {
	tokens := strings.Fields(text)
	ids := make([]int, len(tokens))
	for i := range ids {
		ids[i] = i
	}
	return domain.Encoding{Tokens: tokens, IDs: ids}, nil
}

func (m *mockModelClient) lastRequest() domain.CompleteInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// keywordsFor answers keyword prompts with a fixed completion per text.
func keywordsFor(answers map[string]string) func(string, domain.CompleteInput) (string, error) {
	return func(_ string, input domain.CompleteInput) (string, error) {
		for text, answer := range answers {
			if strings.Contains(input.Prompt, text) {
				return answer, nil
			}
		}
		return "", fmt.Errorf("unexpected prompt %q", input.Prompt)
	}
}

// mockArgillaClient implements driven.ArgillaClient in memory.
type mockArgillaClient struct {
	mu          sync.Mutex
	datasets    map[string][]domain.Record
	evaluations map[string][]domain.ArgillaEvaluation
	splits      map[string]int
	addErr      error
	nextID      int

	workspaceErr   error
	workspaceCalls int
}

var _ driven.ArgillaClient = (*mockArgillaClient)(nil)

func newMockArgillaClient() *mockArgillaClient {
	return &mockArgillaClient{
		datasets:    make(map[string][]domain.Record),
		evaluations: make(map[string][]domain.ArgillaEvaluation),
		splits:      make(map[string]int),
	}
}

func (m *mockArgillaClient) EnsureWorkspaceExists(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspaceCalls++
	if m.workspaceErr != nil {
		return "", m.workspaceErr
	}
	return "ws-" + name, nil
}

func (m *mockArgillaClient) DeleteWorkspace(context.Context, string) error {
	return nil
}

func (m *mockArgillaClient) EnsureDatasetExists(
	_ context.Context, workspaceID, name string, _ []domain.Field, _ []domain.Question,
) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := workspaceID + "/" + name
	if _, ok := m.datasets[id]; !ok {
		m.datasets[id] = nil
	}
	return id, nil
}

func (m *mockArgillaClient) AddRecord(_ context.Context, datasetID string, record domain.RecordData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	if _, ok := m.datasets[datasetID]; !ok {
		return fmt.Errorf("dataset %s: %w", datasetID, domain.ErrNotFound)
	}
	m.nextID++
	m.datasets[datasetID] = append(m.datasets[datasetID], domain.Record{
		RecordData: record,
		ID:         fmt.Sprintf("rec-%d", m.nextID),
	})
	return nil
}

func (m *mockArgillaClient) Records(_ context.Context, datasetID string) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records, ok := m.datasets[datasetID]
	if !ok {
		return nil, fmt.Errorf("dataset %s: %w", datasetID, domain.ErrNotFound)
	}
	return append([]domain.Record(nil), records...), nil
}

func (m *mockArgillaClient) CreateEvaluation(_ context.Context, evaluation domain.ArgillaEvaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for datasetID, records := range m.datasets {
		for _, r := range records {
			if r.ID == evaluation.RecordID {
				m.evaluations[datasetID] = append(m.evaluations[datasetID], evaluation)
				return nil
			}
		}
	}
	return fmt.Errorf("record %s: %w", evaluation.RecordID, domain.ErrNotFound)
}

func (m *mockArgillaClient) Evaluations(_ context.Context, datasetID string) ([]domain.ArgillaEvaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ArgillaEvaluation(nil), m.evaluations[datasetID]...), nil
}

func (m *mockArgillaClient) SplitDataset(_ context.Context, datasetID string, nSplits int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.datasets[datasetID]; !ok {
		return fmt.Errorf("dataset %s: %w", datasetID, domain.ErrNotFound)
	}
	m.splits[datasetID] = nSplits
	return nil
}

// rate submits a rating for every record of the dataset for which score
// returns a value.
func (m *mockArgillaClient) rate(datasetID string, score func(domain.Record) (any, bool)) {
	m.mu.Lock()
	records := append([]domain.Record(nil), m.datasets[datasetID]...)
	m.mu.Unlock()
	for _, r := range records {
		value, ok := score(r)
		if !ok {
			continue
		}
		_ = m.CreateEvaluation(context.Background(), domain.ArgillaEvaluation{
			ExampleID: r.ExampleID,
			RecordID:  r.ID,
			Responses: map[string]any{KeywordRatingQuestion: value},
			Metadata:  r.Metadata,
		})
	}
}

// recordingMetrics implements driven.MetricsRecorder and counts observations.
type recordingMetrics struct {
	mu                sync.Mutex
	taskRuns          map[string]int
	taskFailures      int
	modelRequests     map[string]int
	evaluations       int
	failedEvaluations int
}

var _ driven.MetricsRecorder = (*recordingMetrics)(nil)

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{taskRuns: make(map[string]int), modelRequests: make(map[string]int)}
}

func (r *recordingMetrics) ObserveTaskRun(task string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.taskRuns[task]++
	if err != nil {
		r.taskFailures++
	}
}

func (r *recordingMetrics) ObserveModelRequest(operation string, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modelRequests[operation]++
}

func (r *recordingMetrics) ObserveExampleEvaluation(failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluations++
	if failed {
		r.failedEvaluations++
	}
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	prompt, ok := m.prompts[name]
	if !ok {
		return "", fmt.Errorf("prompt %s: %w", name, domain.ErrNotFound)
	}
	return prompt, nil
}

func (m *mockPromptStore) Reload() {}

func (m *mockPromptStore) Names() ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return slices.Sorted(maps.Keys(m.prompts)), nil
}
