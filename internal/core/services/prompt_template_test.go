package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

func TestPromptTemplate_RendersVariables(t *testing.T) {
	tmpl, err := NewPromptTemplate("Hello {{.name}}!")
	require.NoError(t, err)

	prompt, err := tmpl.ToRichPrompt(map[string]any{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "Hello world!", prompt.Text)
	assert.Nil(t, prompt.Ranges)
}

func TestPromptTemplate_Conditionals(t *testing.T) {
	tmpl := MustPromptTemplate("A{{if .extra}} {{.extra}}{{end}}.")

	with, err := tmpl.ToRichPrompt(map[string]any{"extra": "B"})
	require.NoError(t, err)
	assert.Equal(t, "A B.", with.Text)

	without, err := tmpl.ToRichPrompt(map[string]any{"extra": ""})
	require.NoError(t, err)
	assert.Equal(t, "A.", without.Text)
}

func TestPromptTemplate_Ranges(t *testing.T) {
	tmpl := MustPromptTemplate(
		`Q: {{promptrange "question"}}{{.q}}{{endpromptrange "question"}}` +
			` A: {{promptrange "answer"}}{{.a}}{{endpromptrange "answer"}}`)

	prompt, err := tmpl.ToRichPrompt(map[string]any{"q": "Why?", "a": "Because."})
	require.NoError(t, err)
	assert.Equal(t, "Q: Why? A: Because.", prompt.Text)
	assert.Equal(t, []domain.PromptRange{{Start: 3, End: 7}}, prompt.Ranges["question"])
	assert.Equal(t, []string{"Because."}, prompt.RangeText("answer"))
}

func TestPromptTemplate_NestedAndRepeatedRanges(t *testing.T) {
	tmpl := MustPromptTemplate(
		`{{promptrange "all"}}{{range .items}}{{promptrange "item"}}{{.}}{{endpromptrange "item"}};{{end}}{{endpromptrange "all"}}`)

	prompt, err := tmpl.ToRichPrompt(map[string]any{"items": []string{"a", "bb"}})
	require.NoError(t, err)
	assert.Equal(t, "a;bb;", prompt.Text)
	assert.Equal(t, []string{"a", "bb"}, prompt.RangeText("item"))
	assert.Equal(t, []string{"a;bb;"}, prompt.RangeText("all"))
}

func TestPromptTemplate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]any
		target   error
	}{
		{
			name:     "parse error",
			template: "{{if .x}}",
			target:   domain.ErrInvalidTemplate,
		},
		{
			name:     "missing variable",
			template: "{{.missing}}",
			vars:     map[string]any{},
			target:   domain.ErrInvalidTemplate,
		},
		{
			name:     "unclosed range",
			template: `{{promptrange "r"}}text`,
			target:   domain.ErrInvalidTemplate,
		},
		{
			name:     "closed before opened",
			template: `text{{endpromptrange "r"}}`,
			target:   domain.ErrInvalidTemplate,
		},
		{
			name:     "NUL in variable",
			template: "{{.v}}",
			vars:     map[string]any{"v": "a\x00b"},
			target:   domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := NewPromptTemplate(tt.template)
			if err == nil {
				_, err = tmpl.ToRichPrompt(tt.vars)
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestMustPromptTemplate_Panics(t *testing.T) {
	assert.Panics(t, func() { MustPromptTemplate("{{") })
}
