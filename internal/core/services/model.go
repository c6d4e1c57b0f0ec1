package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// Task names reported to the tracer.
const (
	completeTaskName = "Complete"
	explainTaskName  = "Explain"
)

// Model is a named model served by a ModelClient. It is the central place for
// everything tied to one model: completions, explanations, its tokenizer and
// its context size.
type Model struct {
	name     string
	client   driven.ModelClient
	complete Task[domain.CompleteInput, domain.CompleteOutput]
	explain  Task[domain.ExplainInput, domain.ExplainOutput]

	mu          sync.Mutex
	contextSize int
}

// NewModel creates a model backed by client.
func NewModel(name string, client driven.ModelClient) *Model {
	return &Model{
		name:     name,
		client:   client,
		complete: &completeTask{client: client, model: name},
		explain:  &explainTask{client: client, model: name},
	}
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// CompleteTask returns the task that sends completion requests to this model.
func (m *Model) CompleteTask() Task[domain.CompleteInput, domain.CompleteOutput] {
	return m.complete
}

// Complete sends a completion request.
func (m *Model) Complete(ctx context.Context, input domain.CompleteInput, tracer driven.Tracer) (domain.CompleteOutput, error) {
	return Run(ctx, tracer, completeTaskName, m.complete, input)
}

// Explain sends an explanation request.
func (m *Model) Explain(ctx context.Context, input domain.ExplainInput, tracer driven.Tracer) (domain.ExplainOutput, error) {
	return Run(ctx, tracer, explainTaskName, m.explain, input)
}

// ContextSize returns the maximum number of tokens the model accepts.
// The value is looked up once and cached.
func (m *Model) ContextSize(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.contextSize > 0 {
		return m.contextSize, nil
	}

	models, err := m.client.Models(ctx)
	if err != nil {
		return 0, fmt.Errorf("list models: %w", err)
	}
	for _, info := range models {
		if info.Name == m.name {
			m.contextSize = info.MaxContextSize
			return m.contextSize, nil
		}
	}
	return 0, fmt.Errorf("%w for name %s", domain.ErrNoMatchingModel, m.name)
}

// Tokenize encodes text with the model's tokenizer.
func (m *Model) Tokenize(ctx context.Context, text string) (domain.Encoding, error) {
	return m.client.Tokenize(ctx, m.name, text)
}

type completeTask struct {
	client driven.ModelClient
	model  string
}

func (t *completeTask) DoRun(ctx context.Context, input domain.CompleteInput, span driven.TaskSpan) (domain.CompleteOutput, error) {
	span.Log("Model", t.model)
	return t.client.Complete(ctx, t.model, input)
}

type explainTask struct {
	client driven.ModelClient
	model  string
}

func (t *explainTask) DoRun(ctx context.Context, input domain.ExplainInput, span driven.TaskSpan) (domain.ExplainOutput, error) {
	span.Log("Model", t.model)
	return t.client.Explain(ctx, t.model, input)
}
