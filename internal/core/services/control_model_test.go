package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

func TestModel_ContextSize(t *testing.T) {
	client := &mockModelClient{models: []domain.ModelInfo{
		{Name: "luminous-base", MaxContextSize: 2048},
		{Name: "luminous-base-control", MaxContextSize: 4096},
	}}
	model := NewModel("luminous-base-control", client)

	size, err := model.ContextSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4096, size)

	// Cached after the first lookup.
	_, err = model.ContextSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, client.modelsCalls)
}

func TestModel_ContextSize_NoMatchingModel(t *testing.T) {
	client := &mockModelClient{models: []domain.ModelInfo{{Name: "other", MaxContextSize: 1}}}

	_, err := NewModel("luminous-base", client).ContextSize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoMatchingModel)
	assert.Contains(t, err.Error(), "luminous-base")
}

func TestModel_ContextSize_ClientError(t *testing.T) {
	client := &mockModelClient{modelsErr: errors.New("offline")}

	_, err := NewModel("m", client).ContextSize(context.Background())
	assert.ErrorContains(t, err, "offline")
}

func TestModel_CompleteAndExplain(t *testing.T) {
	client := &mockModelClient{complete: func(string, domain.CompleteInput) (string, error) {
		return " world", nil
	}}
	model := NewModel("luminous-base", client)
	assert.Equal(t, "luminous-base", model.Name())

	out, err := model.Complete(context.Background(), domain.CompleteInput{Prompt: "Hello"}, nil)
	require.NoError(t, err)
	assert.Equal(t, " world", out.Completion())
	assert.Equal(t, "luminous-base", out.ModelVersion)

	explanation, err := model.Explain(context.Background(), domain.ExplainInput{Prompt: "Hello", Target: " world"}, nil)
	require.NoError(t, err)
	assert.Equal(t, " world", explanation.Explanations[0].Target)

	encoding, err := model.Tokenize(context.Background(), "a b c")
	require.NoError(t, err)
	assert.Equal(t, 3, encoding.Len())
}

func TestControlModels_DefaultNames(t *testing.T) {
	client := &mockModelClient{}

	luminous, err := NewLuminousControlModel("", client)
	require.NoError(t, err)
	assert.Equal(t, DefaultLuminousControlModel, luminous.Name())

	llama2, err := NewLlama2InstructModel("", client)
	require.NoError(t, err)
	assert.Equal(t, DefaultLlama2InstructModel, llama2.Name())

	llama3, err := NewLlama3InstructModel("", client)
	require.NoError(t, err)
	assert.Equal(t, DefaultLlama3InstructModel, llama3.Name())
}

func TestControlModels_RejectUnknownNames(t *testing.T) {
	client := &mockModelClient{}

	_, err := NewLuminousControlModel("luminous-base", client)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = NewLlama2InstructModel("llama-3-8b-instruct", client)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = NewLlama3InstructModel("llama-2-7b-chat", client)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewControlModel_PicksFamily(t *testing.T) {
	client := &mockModelClient{}

	tests := []struct {
		name     string
		expected any
	}{
		{name: "", expected: &LuminousControlModel{}},
		{name: "luminous-supreme-control", expected: &LuminousControlModel{}},
		{name: "llama-2-70b-chat", expected: &Llama2InstructModel{}},
		{name: "llama-3-70b-instruct", expected: &Llama3InstructModel{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := NewControlModel(tt.name, client)
			require.NoError(t, err)
			assert.IsType(t, tt.expected, model)
		})
	}
}

func TestNewControlModel_UnknownNameIsNil(t *testing.T) {
	model, err := NewControlModel("llama-3-unknown", &mockModelClient{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, model)
}

func TestValidateControlModelName(t *testing.T) {
	for _, name := range []string{"", "luminous-extended-control", "llama-2-7b-chat", "llama-3-8b-instruct"} {
		t.Run("valid "+name, func(t *testing.T) {
			require.NoError(t, ValidateControlModelName(name))
			_, err := NewControlModel(name, &mockModelClient{})
			assert.NoError(t, err)
		})
	}
	for _, name := range []string{"gpt-4", "luminous-base", "llama-3-unknown", "llama-2-13b"} {
		t.Run("invalid "+name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateControlModelName(name), domain.ErrInvalidInput)
		})
	}
}

func TestLuminousControlModel_ToInstructPrompt(t *testing.T) {
	model, err := NewLuminousControlModel("", &mockModelClient{})
	require.NoError(t, err)

	prompt, err := model.ToInstructPrompt("Summarize.", "Some text", "")
	require.NoError(t, err)
	assert.Equal(t, "Summarize.\n\nSome text\n\n### Response:", prompt.Text)
	assert.Equal(t, []string{"Summarize."}, prompt.RangeText("instruction"))
	assert.Equal(t, []string{"Some text"}, prompt.RangeText("input"))

	noInput, err := model.ToInstructPrompt("Say hi.", "", " Hi")
	require.NoError(t, err)
	assert.Equal(t, "Say hi.\n\n### Response: Hi", noInput.Text)
	assert.Empty(t, noInput.RangeText("input"))
}

func TestLlama2InstructModel_ToInstructPrompt(t *testing.T) {
	model, err := NewLlama2InstructModel("", &mockModelClient{})
	require.NoError(t, err)

	prompt, err := model.ToInstructPrompt("Summarize.", "Some text", "Summary:")
	require.NoError(t, err)
	assert.Equal(t, "<s>[INST] <<SYS>>\nSummarize.\n<</SYS>>\n\nSome text [/INST]\n\nSummary:", prompt.Text)

	bare, err := model.ToInstructPrompt("Hi.", "", "")
	require.NoError(t, err)
	assert.Equal(t, "<s>[INST] <<SYS>>\nHi.\n<</SYS>> [/INST]", bare.Text)
}

func TestLlama3InstructModel_ToInstructPrompt(t *testing.T) {
	model, err := NewLlama3InstructModel("", &mockModelClient{})
	require.NoError(t, err)

	prompt, err := model.ToInstructPrompt("Summarize.", "Some text", "")
	require.NoError(t, err)
	assert.Equal(t,
		"<|begin_of_text|><|start_header_id|>user<|end_header_id|>\n\nSummarize.\n\nSome text"+
			"<|eot_id|><|start_header_id|>assistant<|end_header_id|>",
		prompt.Text)
	assert.Equal(t, []string{"Some text"}, prompt.RangeText("input"))
}

func TestLlama3InstructModel_CompleteAddsEOTStop(t *testing.T) {
	client := &mockModelClient{}
	model, err := NewLlama3InstructModel("", client)
	require.NoError(t, err)

	input := domain.CompleteInput{Prompt: "x", StopSequences: []string{"\n"}}
	_, err = model.Complete(context.Background(), input, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"\n", Llama3EOTToken}, client.lastRequest().StopSequences)
	assert.Equal(t, []string{"\n"}, input.StopSequences, "caller's input must not change")

	// Already present: not added twice.
	_, err = model.Complete(context.Background(), domain.CompleteInput{
		Prompt:        "x",
		StopSequences: []string{Llama3EOTToken},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{Llama3EOTToken}, client.lastRequest().StopSequences)
}
