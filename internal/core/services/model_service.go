package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

// Ensure ModelService implements the interface.
var _ driving.ModelService = (*ModelService)(nil)

// ModelService exposes the models of a ModelClient. An empty model name
// selects the configured default model.
type ModelService struct {
	client       driven.ModelClient
	defaultModel string
	tracer       driven.Tracer
	metrics      driven.MetricsRecorder

	mu     sync.Mutex
	models map[string]*Model
}

// NewModelService creates a new model service.
func NewModelService(client driven.ModelClient, defaultModel string) *ModelService {
	if defaultModel == "" {
		defaultModel = domain.DefaultModelName
	}
	return &ModelService{
		client:       client,
		defaultModel: defaultModel,
		models:       make(map[string]*Model),
	}
}

// SetTracer sets the tracer every request reports to.
func (s *ModelService) SetTracer(tracer driven.Tracer) {
	s.tracer = tracer
}

// SetMetrics sets the recorder that observes every request.
func (s *ModelService) SetMetrics(metrics driven.MetricsRecorder) {
	s.metrics = metrics
}

// DefaultModel returns the model used when none is named.
func (s *ModelService) DefaultModel() string {
	return s.defaultModel
}

// Model returns the cached Model for name.
func (s *ModelService) Model(name string) *Model {
	if name == "" {
		name = s.defaultModel
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[name]
	if !ok {
		m = NewModel(name, s.client)
		s.models[name] = m
	}
	return m
}

// Complete sends a completion request.
func (s *ModelService) Complete(ctx context.Context, model string, input domain.CompleteInput) (*domain.CompleteOutput, error) {
	if input.Prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	began := time.Now()
	out, err := s.Model(model).Complete(ctx, input, s.tracer)
	s.observe("complete", began, err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Instruct formats an instruction with the model's prompt format and completes it.
func (s *ModelService) Instruct(ctx context.Context, model string, req driving.InstructRequest) (*domain.CompleteOutput, error) {
	if req.Instruction == "" {
		return nil, fmt.Errorf("%w: instruction is required", domain.ErrInvalidInput)
	}
	if model == "" {
		model = s.defaultModel
	}
	control, err := NewControlModel(model, s.client)
	if err != nil {
		return nil, err
	}
	prompt, err := control.ToInstructPrompt(req.Instruction, req.Input, req.ResponsePrefix)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	began := time.Now()
	out, err := control.Complete(ctx, domain.CompleteInput{
		Prompt:        prompt.Text,
		MaximumTokens: req.MaximumTokens,
	}, s.tracer)
	s.observe("instruct", began, err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Explain sends an explanation request.
func (s *ModelService) Explain(ctx context.Context, model string, input domain.ExplainInput) (*domain.ExplainOutput, error) {
	began := time.Now()
	out, err := s.Model(model).Explain(ctx, input, s.tracer)
	s.observe("explain", began, err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Tokenize encodes text with the model's tokenizer.
func (s *ModelService) Tokenize(ctx context.Context, model, text string) (*domain.Encoding, error) {
	began := time.Now()
	encoding, err := s.Model(model).Tokenize(ctx, text)
	s.observe("tokenize", began, err)
	if err != nil {
		return nil, err
	}
	return &encoding, nil
}

// ContextSize returns the maximum number of tokens the model accepts.
func (s *ModelService) ContextSize(ctx context.Context, model string) (int, error) {
	return s.Model(model).ContextSize(ctx)
}

func (s *ModelService) observe(operation string, began time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveModelRequest(operation, time.Since(began), err)
	}
}
