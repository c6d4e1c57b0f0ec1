package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompleteOutput_Completion(t *testing.T) {
	t.Run("returns first completion", func(t *testing.T) {
		out := CompleteOutput{
			Completions:        []CompletionResult{{Completion: "first"}, {Completion: "second"}},
			NumTokensGenerated: 7,
		}
		assert.Equal(t, "first", out.Completion())
		assert.Equal(t, 7, out.GeneratedTokens())
	})

	t.Run("empty without completions", func(t *testing.T) {
		assert.Equal(t, "", CompleteOutput{}.Completion())
	})
}

func TestCompleteInput_WithStopSequence(t *testing.T) {
	t.Run("appends to existing", func(t *testing.T) {
		stops := []string{"\n"}
		in := CompleteInput{Prompt: "hi", StopSequences: stops}

		out := in.WithStopSequence("<|eot_id|>")

		assert.Equal(t, []string{"\n", "<|eot_id|>"}, out.StopSequences)
		assert.Equal(t, []string{"\n"}, stops)
	})

	t.Run("creates list when nil", func(t *testing.T) {
		out := CompleteInput{Prompt: "hi"}.WithStopSequence("<|eot_id|>")
		assert.Equal(t, []string{"<|eot_id|>"}, out.StopSequences)
	})

	t.Run("does not duplicate", func(t *testing.T) {
		in := CompleteInput{StopSequences: []string{"<|eot_id|>"}}
		assert.Equal(t, []string{"<|eot_id|>"}, in.WithStopSequence("<|eot_id|>").StopSequences)
	})
}

func TestEncoding_Len(t *testing.T) {
	assert.Equal(t, 0, Encoding{}.Len())
	assert.Equal(t, 2, Encoding{Tokens: []string{"a", "b"}, IDs: []int{1, 2}}.Len())
	assert.Equal(t, 3, Encoding{IDs: []int{1, 2, 3}}.Len())
}

func TestRichPrompt_RangeText(t *testing.T) {
	prompt := RichPrompt{
		Text:   "Do this: input text",
		Ranges: map[string][]PromptRange{"input": {{Start: 9, End: 19}}},
	}

	assert.Equal(t, []string{"input text"}, prompt.RangeText("input"))
	assert.Empty(t, prompt.RangeText("missing"))
}
