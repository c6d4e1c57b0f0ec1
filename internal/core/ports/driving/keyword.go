package driving

import (
	"context"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// KeywordService extracts keywords from text.
type KeywordService interface {
	// Extract returns the keywords of text written in language.
	// Returns domain.ErrLanguageNotSupported for unsupported languages.
	Extract(ctx context.Context, text domain.TextChunk, language domain.Language) ([]string, error)

	// SupportedLanguages returns the languages Extract accepts.
	SupportedLanguages() []domain.Language
}
