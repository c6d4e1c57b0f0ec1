package driven

import (
	"context"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// ModelClient provides access to a hosted model API.
//
// Implementations may include:
//   - The Aleph Alpha HTTP API
//   - A concurrency-limited wrapper around another client
type ModelClient interface {
	// Complete generates a completion for the input with the named model.
	Complete(ctx context.Context, model string, input domain.CompleteInput) (domain.CompleteOutput, error)

	// Explain attributes a target completion to parts of the prompt.
	Explain(ctx context.Context, model string, input domain.ExplainInput) (domain.ExplainOutput, error)

	// Models lists the models offered by the API.
	Models(ctx context.Context) ([]domain.ModelInfo, error)

	// Tokenize encodes text with the named model's tokenizer.
	Tokenize(ctx context.Context, model, text string) (domain.Encoding, error)
}
