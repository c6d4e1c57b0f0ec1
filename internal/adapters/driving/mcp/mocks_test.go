package mcp

import (
	"context"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

// mockModelService is a mock implementation of driving.ModelService.
type mockModelService struct {
	completion  string
	err         error
	lastInput   domain.CompleteInput
	lastRequest driving.InstructRequest
	lastModel   string
}

func (m *mockModelService) output(model string) (*domain.CompleteOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	if model == "" {
		model = domain.DefaultModelName
	}
	return &domain.CompleteOutput{
		ModelVersion:       model,
		Completions:        []domain.CompletionResult{{Completion: m.completion}},
		NumTokensGenerated: 3,
	}, nil
}

func (m *mockModelService) Complete(
	_ context.Context, model string, input domain.CompleteInput,
) (*domain.CompleteOutput, error) {
	m.lastModel = model
	m.lastInput = input
	return m.output(model)
}

func (m *mockModelService) Instruct(
	_ context.Context, model string, req driving.InstructRequest,
) (*domain.CompleteOutput, error) {
	m.lastModel = model
	m.lastRequest = req
	return m.output(model)
}

func (m *mockModelService) Explain(
	_ context.Context, _ string, _ domain.ExplainInput,
) (*domain.ExplainOutput, error) {
	return &domain.ExplainOutput{}, m.err
}

func (m *mockModelService) Tokenize(_ context.Context, _, _ string) (*domain.Encoding, error) {
	return &domain.Encoding{}, m.err
}

func (m *mockModelService) ContextSize(_ context.Context, _ string) (int, error) {
	return 2048, m.err
}

// mockKeywordService is a mock implementation of driving.KeywordService.
type mockKeywordService struct {
	keywords     []string
	err          error
	lastLanguage domain.Language
}

func (m *mockKeywordService) Extract(
	_ context.Context, _ domain.TextChunk, language domain.Language,
) ([]string, error) {
	m.lastLanguage = language
	return m.keywords, m.err
}

func (m *mockKeywordService) SupportedLanguages() []domain.Language {
	return []domain.Language{"de", "en"}
}

// mockDatasetService is a mock implementation of driving.DatasetService.
type mockDatasetService struct {
	datasets []domain.Dataset
	examples []domain.StoredExample
	err      error
}

func (m *mockDatasetService) Create(
	_ context.Context, name string, _ []domain.StoredExample,
) (*domain.Dataset, error) {
	return &domain.Dataset{ID: "new", Name: name}, m.err
}

func (m *mockDatasetService) List(_ context.Context) ([]domain.Dataset, error) {
	return m.datasets, m.err
}

func (m *mockDatasetService) Get(_ context.Context, _ string) (*domain.Dataset, error) {
	if len(m.datasets) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.datasets[0], m.err
}

func (m *mockDatasetService) Examples(_ context.Context, _ string) ([]domain.StoredExample, error) {
	return m.examples, m.err
}

func (m *mockDatasetService) Delete(_ context.Context, _ string) error {
	return m.err
}

// mockEvaluationService is a mock implementation of driving.EvaluationService.
type mockEvaluationService struct {
	overview    *domain.EvaluationOverview
	evaluations []domain.ExampleEvaluation
	err         error
}

func (m *mockEvaluationService) RunKeywords(_ context.Context, _, _ string) (*domain.RunOverview, error) {
	return nil, m.err
}

func (m *mockEvaluationService) EvaluateKeywords(
	_ context.Context, _ string, _ ...string,
) (*domain.EvaluationOverview, error) {
	return m.overview, m.err
}

func (m *mockEvaluationService) SubmitKeywordRatings(
	_ context.Context, _ string, _ ...string,
) (*domain.PartialEvaluationOverview, error) {
	return nil, m.err
}

func (m *mockEvaluationService) RetrieveKeywordRatings(
	_ context.Context, _ string,
) (*domain.EvaluationOverview, error) {
	return m.overview, m.err
}

func (m *mockEvaluationService) SplitRatingDataset(_ context.Context, _ string, _ int) error {
	return m.err
}

func (m *mockEvaluationService) Runs(_ context.Context) ([]domain.RunOverview, error) {
	return nil, m.err
}

func (m *mockEvaluationService) Evaluations(_ context.Context) ([]domain.EvaluationOverview, error) {
	return nil, m.err
}

func (m *mockEvaluationService) PartialEvaluations(
	_ context.Context,
) ([]domain.PartialEvaluationOverview, error) {
	return nil, m.err
}

func (m *mockEvaluationService) Evaluation(
	_ context.Context, _ string,
) (*domain.EvaluationOverview, []domain.ExampleEvaluation, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.overview, m.evaluations, nil
}

var (
	_ driving.ModelService      = (*mockModelService)(nil)
	_ driving.KeywordService    = (*mockKeywordService)(nil)
	_ driving.DatasetService    = (*mockDatasetService)(nil)
	_ driving.EvaluationService = (*mockEvaluationService)(nil)
)

func validPorts() *Ports {
	return &Ports{
		Model:    &mockModelService{},
		Keywords: &mockKeywordService{},
	}
}
