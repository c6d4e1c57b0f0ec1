package driving

import (
	"context"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// ModelService exposes model operations to external actors.
// An empty model name selects the configured default model.
type ModelService interface {
	// Complete sends a raw completion request.
	Complete(ctx context.Context, model string, input domain.CompleteInput) (*domain.CompleteOutput, error)

	// Instruct wraps instruction and input in the model's instruction prompt and completes it.
	Instruct(ctx context.Context, model string, req InstructRequest) (*domain.CompleteOutput, error)

	// Explain attributes a target completion to parts of the prompt.
	Explain(ctx context.Context, model string, input domain.ExplainInput) (*domain.ExplainOutput, error)

	// Tokenize encodes text with the model's tokenizer.
	Tokenize(ctx context.Context, model, text string) (*domain.Encoding, error)

	// ContextSize returns the maximum context size of the model in tokens.
	ContextSize(ctx context.Context, model string) (int, error)
}

// InstructRequest is a single-turn instruction for a control model.
type InstructRequest struct {
	Instruction    string
	Input          string
	ResponsePrefix string
	MaximumTokens  int
}
