package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

// Ensure KeywordExtract implements the interface.
var _ driving.KeywordService = (*KeywordExtract)(nil)

// KeywordExtractTaskName is reported to the tracer for every extraction.
const KeywordExtractTaskName = "KeywordExtract"

const defaultKeywordMaximumTokens = 32

// KeywordInstructions are the default keyword extraction instructions per language.
var KeywordInstructions = map[domain.Language]string{
	"de": "Worum geht es in dem Text? Extrahiere ein paar Stichwörter in Form einer Komma-separierten Liste.",
	"en": "What is the text about? Extract a few keywords in form of a comma-separated list.",
	"es": "¿De qué trata el texto? Extrae algunas palabras clave en forma de una lista separada por comas.",
	"fr": "De quoi parle le texte? Extraire quelques mots-clés sous forme d'une liste séparée par des virgules.",
	"it": "Di cosa tratta il testo? Estrai alcune parole chiave sotto forma di una lista separata da virgole.",
}

// KeywordExtractInput is the input of the keyword extraction task.
type KeywordExtractInput struct {
	Chunk    domain.TextChunk `json:"chunk"`
	Language domain.Language  `json:"language"`
}

// KeywordExtractOutput holds the extracted keywords without duplicates.
type KeywordExtractOutput struct {
	Keywords []string `json:"keywords"`
}

// KeywordExtract asks a control model for the keywords of a text.
type KeywordExtract struct {
	model         ControlModel
	mu            sync.RWMutex
	instructions  map[domain.Language]string
	maximumTokens int
	tracer        driven.Tracer
}

// KeywordExtractOption configures a KeywordExtract.
type KeywordExtractOption func(*KeywordExtract)

// WithKeywordInstructions replaces the per-language instructions.
func WithKeywordInstructions(instructions map[domain.Language]string) KeywordExtractOption {
	return func(k *KeywordExtract) {
		k.instructions = instructions
	}
}

// WithKeywordMaximumTokens caps the completion length.
func WithKeywordMaximumTokens(n int) KeywordExtractOption {
	return func(k *KeywordExtract) {
		k.maximumTokens = n
	}
}

// WithKeywordTracer sets the tracer used by Extract.
func WithKeywordTracer(tracer driven.Tracer) KeywordExtractOption {
	return func(k *KeywordExtract) {
		k.tracer = tracer
	}
}

// NewKeywordExtract creates the keyword extraction task.
func NewKeywordExtract(model ControlModel, opts ...KeywordExtractOption) *KeywordExtract {
	k := &KeywordExtract{
		model:         model,
		instructions:  KeywordInstructions,
		maximumTokens: defaultKeywordMaximumTokens,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// DoRun extracts the keywords of input.Chunk.
func (k *KeywordExtract) DoRun(
	ctx context.Context, input KeywordExtractInput, span driven.TaskSpan,
) (KeywordExtractOutput, error) {
	k.mu.RLock()
	instruction, ok := k.instructions[input.Language]
	k.mu.RUnlock()
	if !ok {
		return KeywordExtractOutput{}, fmt.Errorf("%w: %s", domain.ErrLanguageNotSupported, input.Language)
	}

	prompt, err := k.model.ToInstructPrompt(instruction, string(input.Chunk), "")
	if err != nil {
		return KeywordExtractOutput{}, fmt.Errorf("build prompt: %w", err)
	}

	span.Log("Model", k.model.Name())
	result, err := k.model.Complete(ctx, domain.CompleteInput{
		Prompt:        prompt.Text,
		MaximumTokens: k.maximumTokens,
	}, TracerFromContext(ctx))
	if err != nil {
		return KeywordExtractOutput{}, fmt.Errorf("complete: %w", err)
	}

	return KeywordExtractOutput{Keywords: ParseKeywords(result.Completion())}, nil
}

// Extract runs the task for a single text.
func (k *KeywordExtract) Extract(ctx context.Context, text domain.TextChunk, language domain.Language) ([]string, error) {
	out, err := Run(ctx, k.tracer, KeywordExtractTaskName, Task[KeywordExtractInput, KeywordExtractOutput](k),
		KeywordExtractInput{Chunk: text, Language: language})
	if err != nil {
		return nil, err
	}
	return out.Keywords, nil
}

// SupportedLanguages returns the languages with an instruction, sorted.
func (k *KeywordExtract) SupportedLanguages() []domain.Language {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return slices.Sorted(maps.Keys(k.instructions))
}

// SetInstructions replaces the per-language instructions. Extractions
// already running keep the instruction they started with.
func (k *KeywordExtract) SetInstructions(instructions map[domain.Language]string) {
	k.mu.Lock()
	k.instructions = instructions
	k.mu.Unlock()
}

// ParseKeywords splits a comma-separated completion into trimmed, unique keywords.
func ParseKeywords(completion string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, part := range strings.Split(completion, ",") {
		keyword := strings.TrimSpace(part)
		if keyword == "" || seen[keyword] {
			continue
		}
		seen[keyword] = true
		keywords = append(keywords, keyword)
	}
	return keywords
}

// KeywordPromptDefaults returns the default instructions keyed by prompt name,
// for seeding a PromptStore.
func KeywordPromptDefaults() map[string]string {
	defaults := make(map[string]string, len(KeywordInstructions))
	for language, instruction := range KeywordInstructions {
		defaults[driven.KeywordPromptName(string(language))] = instruction
	}
	return defaults
}

// KeywordInstructionsFromStore loads the instruction of every default language
// from store, so that users can customise them. A keywords_<lang> prompt the
// user added makes <lang> a supported language.
func KeywordInstructionsFromStore(store driven.PromptStore) (map[domain.Language]string, error) {
	names, err := store.Names()
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	languages := slices.Collect(maps.Keys(KeywordInstructions))
	for _, name := range names {
		if language, ok := driven.KeywordPromptLanguage(name); ok && !slices.Contains(languages, domain.Language(language)) {
			languages = append(languages, domain.Language(language))
		}
	}

	instructions := make(map[domain.Language]string, len(languages))
	for _, language := range languages {
		instruction, err := store.Load(driven.KeywordPromptName(string(language)))
		if err != nil {
			return nil, fmt.Errorf("load keyword instruction for %s: %w", language, err)
		}
		instructions[language] = instruction
	}
	return instructions, nil
}
