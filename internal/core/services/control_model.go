package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// ControlModel is a model tuned to follow single-turn instructions.
type ControlModel interface {
	// Name returns the model name.
	Name() string

	// Complete sends a completion request.
	Complete(ctx context.Context, input domain.CompleteInput, tracer driven.Tracer) (domain.CompleteOutput, error)

	// ToInstructPrompt wraps an instruction in the prompt format the model was trained on.
	// Empty input and responsePrefix are left out.
	ToInstructPrompt(instruction, input, responsePrefix string) (domain.RichPrompt, error)
}

// Default model names.
const (
	DefaultLuminousControlModel = "luminous-base-control"
	DefaultLlama2InstructModel  = "llama-2-13b-chat"
	DefaultLlama3InstructModel  = "llama-3-8b-instruct"
)

// Llama3EOTToken ends a llama-3 assistant turn.
const Llama3EOTToken = "<|eot_id|>"

var luminousControlNames = []string{
	"luminous-base-control-20230501",
	"luminous-extended-control-20230501",
	"luminous-supreme-control-20230501",
	"luminous-base-control",
	"luminous-extended-control",
	"luminous-supreme-control",
	"luminous-base-control-20240215",
	"luminous-extended-control-20240215",
	"luminous-supreme-control-20240215",
}

var llama2Names = []string{
	"llama-2-7b-chat",
	"llama-2-13b-chat",
	"llama-2-70b-chat",
}

var llama3Names = []string{
	"llama-3-8b-instruct",
	"llama-3-70b-instruct",
}

var luminousInstructionTemplate = MustPromptTemplate(
	`{{promptrange "instruction"}}{{.instruction}}{{endpromptrange "instruction"}}
{{if .input}}
{{promptrange "input"}}{{.input}}{{endpromptrange "input"}}
{{end}}
### Response:{{.response_prefix}}`)

var llama2InstructionTemplate = MustPromptTemplate(`<s>[INST] <<SYS>>
{{promptrange "instruction"}}{{.instruction}}{{endpromptrange "instruction"}}
<</SYS>>{{if .input}}

{{promptrange "input"}}{{.input}}{{endpromptrange "input"}}{{end}} [/INST]{{if .response_prefix}}

{{.response_prefix}}{{end}}`)

var llama3InstructionTemplate = MustPromptTemplate(
	`<|begin_of_text|><|start_header_id|>user<|end_header_id|>

{{promptrange "instruction"}}{{.instruction}}{{endpromptrange "instruction"}}{{if .input}}

{{promptrange "input"}}{{.input}}{{endpromptrange "input"}}{{end}}<|eot_id|><|start_header_id|>assistant<|end_header_id|>{{if .response_prefix}}

{{.response_prefix}}{{end}}`)

func instructVars(instruction, input, responsePrefix string) map[string]any {
	return map[string]any{
		"instruction":     instruction,
		"input":           input,
		"response_prefix": responsePrefix,
	}
}

func validateModelName(name string, allowed []string, family string) error {
	if !slices.Contains(allowed, name) {
		return fmt.Errorf("%w: %q is not a %s model (expected one of %s)",
			domain.ErrInvalidInput, name, family, strings.Join(allowed, ", "))
	}
	return nil
}

// LuminousControlModel is an Aleph Alpha control model of the second generation.
type LuminousControlModel struct {
	*Model
}

// NewLuminousControlModel creates a luminous control model.
// An empty name selects luminous-base-control.
func NewLuminousControlModel(name string, client driven.ModelClient) (*LuminousControlModel, error) {
	if name == "" {
		name = DefaultLuminousControlModel
	}
	if err := validateModelName(name, luminousControlNames, "luminous control"); err != nil {
		return nil, err
	}
	return &LuminousControlModel{Model: NewModel(name, client)}, nil
}

// ToInstructPrompt wraps an instruction in the luminous control prompt format.
func (m *LuminousControlModel) ToInstructPrompt(instruction, input, responsePrefix string) (domain.RichPrompt, error) {
	return luminousInstructionTemplate.ToRichPrompt(instructVars(instruction, input, responsePrefix))
}

// Llama2InstructModel is a llama-2-*-chat model prompted for single-turn
// instructions. Prefer Llama3InstructModel where available.
type Llama2InstructModel struct {
	*Model
}

// NewLlama2InstructModel creates a llama-2 chat model.
// An empty name selects llama-2-13b-chat.
func NewLlama2InstructModel(name string, client driven.ModelClient) (*Llama2InstructModel, error) {
	if name == "" {
		name = DefaultLlama2InstructModel
	}
	if err := validateModelName(name, llama2Names, "llama-2"); err != nil {
		return nil, err
	}
	return &Llama2InstructModel{Model: NewModel(name, client)}, nil
}

// ToInstructPrompt wraps an instruction in the llama-2 chat prompt format.
func (m *Llama2InstructModel) ToInstructPrompt(instruction, input, responsePrefix string) (domain.RichPrompt, error) {
	return llama2InstructionTemplate.ToRichPrompt(instructVars(instruction, input, responsePrefix))
}

// Llama3InstructModel is a llama-3-*-instruct model.
type Llama3InstructModel struct {
	*Model
}

// NewLlama3InstructModel creates a llama-3 instruct model.
// An empty name selects llama-3-8b-instruct.
func NewLlama3InstructModel(name string, client driven.ModelClient) (*Llama3InstructModel, error) {
	if name == "" {
		name = DefaultLlama3InstructModel
	}
	if err := validateModelName(name, llama3Names, "llama-3"); err != nil {
		return nil, err
	}
	return &Llama3InstructModel{Model: NewModel(name, client)}, nil
}

// Complete sends a completion request that also stops at the end-of-turn token.
// TODO: drop once the API stops generation at the llama-3 end-of-turn token itself.
func (m *Llama3InstructModel) Complete(
	ctx context.Context, input domain.CompleteInput, tracer driven.Tracer,
) (domain.CompleteOutput, error) {
	return m.Model.Complete(ctx, input.WithStopSequence(Llama3EOTToken), tracer)
}

// ToInstructPrompt wraps an instruction in the llama-3 prompt format.
func (m *Llama3InstructModel) ToInstructPrompt(instruction, input, responsePrefix string) (domain.RichPrompt, error) {
	return llama3InstructionTemplate.ToRichPrompt(instructVars(instruction, input, responsePrefix))
}

// ValidateControlModelName reports whether NewControlModel accepts name.
// An empty name is valid and selects the default luminous control model.
func ValidateControlModelName(name string) error {
	if name == "" {
		return nil
	}
	switch {
	case strings.HasPrefix(name, "llama-3"):
		return validateModelName(name, llama3Names, "llama-3")
	case strings.HasPrefix(name, "llama-2"):
		return validateModelName(name, llama2Names, "llama-2")
	default:
		return validateModelName(name, luminousControlNames, "luminous control")
	}
}

// NewControlModel picks the control model family from the model name.
// An empty name selects the default luminous control model.
func NewControlModel(name string, client driven.ModelClient) (ControlModel, error) {
	var (
		model ControlModel
		err   error
	)
	switch {
	case strings.HasPrefix(name, "llama-3"):
		model, err = NewLlama3InstructModel(name, client)
	case strings.HasPrefix(name, "llama-2"):
		model, err = NewLlama2InstructModel(name, client)
	default:
		model, err = NewLuminousControlModel(name, client)
	}
	if err != nil {
		return nil, err
	}
	return model, nil
}
