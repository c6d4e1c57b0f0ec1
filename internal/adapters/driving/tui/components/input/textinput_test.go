package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/styles"
)

func TestNewTextInput(t *testing.T) {
	input := NewTextInput(styles.DefaultStyles(), "Text", "Type a text...")

	require.NotNil(t, input)
	assert.Empty(t, input.Value())
	assert.True(t, input.Focused())
	assert.NotNil(t, input.Init())
}

func TestNewTextInput_NilStyles(t *testing.T) {
	input := NewTextInput(nil, "Text", "")

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
}

func TestTextInput_TypesRunes(t *testing.T) {
	input := NewTextInput(nil, "Text", "")

	input, _ = input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("cats")})

	assert.Equal(t, "cats", input.Value())
}

func TestTextInput_SetValueAndReset(t *testing.T) {
	input := NewTextInput(nil, "Text", "")

	input.SetValue("My cat sleeps")
	assert.Equal(t, "My cat sleeps", input.Value())

	input.Reset()
	assert.Empty(t, input.Value())
}

func TestTextInput_View(t *testing.T) {
	input := NewTextInput(nil, "Text", "")
	input.SetValue("hello")

	view := input.View()

	assert.Contains(t, view, "Text:")
	assert.Contains(t, view, "hello")
}

func TestTextInput_SetWidth(t *testing.T) {
	input := NewTextInput(nil, "Text", "")

	input.SetWidth(100)
	assert.Equal(t, 100, input.Width())
	assert.Equal(t, 88, input.textinput.Width)

	input.SetWidth(10)
	assert.Equal(t, 20, input.textinput.Width)
}
