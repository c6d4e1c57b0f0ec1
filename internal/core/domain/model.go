package domain

// CompleteInput is a completion request sent to a model.
type CompleteInput struct {
	// Prompt is the text the model continues.
	Prompt string `json:"prompt"`

	// MaximumTokens caps the number of generated tokens.
	MaximumTokens int `json:"maximum_tokens,omitempty"`

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64 `json:"temperature,omitempty"`

	// TopK restricts sampling to the k most likely tokens. Zero disables it.
	TopK int `json:"top_k,omitempty"`

	// TopP restricts sampling to the smallest token set with cumulative probability p.
	TopP float64 `json:"top_p,omitempty"`

	// StopSequences end generation when produced.
	StopSequences []string `json:"stop_sequences,omitempty"`

	// Echo prepends the prompt to the completion.
	Echo bool `json:"echo,omitempty"`
}

// WithStopSequence returns a copy of the input that stops at seq.
// The receiver's stop sequences are never modified.
func (in CompleteInput) WithStopSequence(seq string) CompleteInput {
	for _, s := range in.StopSequences {
		if s == seq {
			return in
		}
	}
	stops := make([]string, 0, len(in.StopSequences)+1)
	stops = append(stops, in.StopSequences...)
	in.StopSequences = append(stops, seq)
	return in
}

// CompletionResult is a single generated completion.
type CompletionResult struct {
	Completion   string `json:"completion"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// CompleteOutput is the model's response to a CompleteInput.
type CompleteOutput struct {
	ModelVersion         string             `json:"model_version"`
	Completions          []CompletionResult `json:"completions"`
	NumTokensPromptTotal int                `json:"num_tokens_prompt_total"`
	NumTokensGenerated   int                `json:"num_tokens_generated"`
}

// Completion returns the text of the first completion, or "" when there is none.
func (o CompleteOutput) Completion() string {
	if len(o.Completions) == 0 {
		return ""
	}
	return o.Completions[0].Completion
}

// GeneratedTokens returns the number of tokens the model generated.
func (o CompleteOutput) GeneratedTokens() int {
	return o.NumTokensGenerated
}

// Granularity selects how finely an explanation splits the prompt.
type Granularity string

// Available explanation granularities.
const (
	GranularityToken     Granularity = "token"
	GranularityWord      Granularity = "word"
	GranularitySentence  Granularity = "sentence"
	GranularityParagraph Granularity = "paragraph"
)

// ExplainInput asks the model which parts of the prompt drove a target completion.
type ExplainInput struct {
	Prompt            string      `json:"prompt"`
	Target            string      `json:"target"`
	PromptGranularity Granularity `json:"prompt_granularity,omitempty"`
	ControlFactor     float64     `json:"control_factor,omitempty"`
}

// TextScore attributes a score to a byte span of the prompt.
type TextScore struct {
	Start  int     `json:"start"`
	Length int     `json:"length"`
	Score  float64 `json:"score"`
}

// ExplanationItem holds the scores for one prompt item.
type ExplanationItem struct {
	Type   string      `json:"type"`
	Scores []TextScore `json:"scores"`
}

// Explanation groups the explanation items for one target span.
type Explanation struct {
	Target string            `json:"target"`
	Items  []ExplanationItem `json:"items"`
}

// ExplainOutput is the model's response to an ExplainInput.
type ExplainOutput struct {
	ModelVersion string        `json:"model_version"`
	Explanations []Explanation `json:"explanations"`
}

// ModelInfo describes a model offered by the API.
type ModelInfo struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	MaxContextSize int    `json:"max_context_size"`
}

// Encoding is the tokenised form of a text.
type Encoding struct {
	Tokens []string `json:"tokens"`
	IDs    []int    `json:"token_ids"`
}

// Len returns the number of tokens.
func (e Encoding) Len() int {
	if len(e.IDs) > len(e.Tokens) {
		return len(e.IDs)
	}
	return len(e.Tokens)
}
