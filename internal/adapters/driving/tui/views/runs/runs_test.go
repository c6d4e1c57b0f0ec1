package runs

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

// MockEvaluationService implements driving.EvaluationService for testing.
type MockEvaluationService struct {
	driving.EvaluationService
	RunsFunc func(ctx context.Context) ([]domain.RunOverview, error)
}

func (m *MockEvaluationService) Runs(ctx context.Context) ([]domain.RunOverview, error) {
	if m.RunsFunc != nil {
		return m.RunsFunc(ctx)
	}
	return nil, nil
}

func TestView_LoadsNewestFirst(t *testing.T) {
	start := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	mock := &MockEvaluationService{
		RunsFunc: func(context.Context) ([]domain.RunOverview, error) {
			return []domain.RunOverview{
				{ID: "run-old", DatasetID: "ds-1", StartDate: start, SuccessfulExampleCount: 2},
				{ID: "run-new", DatasetID: "ds-1", StartDate: start.Add(time.Hour), FailedExampleCount: 1,
					Description: "retry"},
			}, nil
		},
	}
	view := NewView(nil, mock)

	cmd := view.Init()
	assert.Contains(t, view.View(), "Loading runs...")
	view, _ = view.Update(cmd())

	require.Len(t, view.Runs(), 2)
	assert.Equal(t, "run-new", view.Runs()[0].ID)
	out := view.View()
	assert.Contains(t, out, "Runs (2)")
	assert.Contains(t, out, "> run-new  2026-10-01 13:00:00")
	assert.Contains(t, out, "failed=1")
	assert.Contains(t, out, "retry")
	assert.Contains(t, out, "ok=2")
}

func TestView_NilService(t *testing.T) {
	view := NewView(nil, nil)

	view, _ = view.Update(view.Init()())

	require.Error(t, view.Err())
	assert.Contains(t, view.View(), "configure the model token")
}

func TestView_Empty(t *testing.T) {
	view := NewView(nil, &MockEvaluationService{})

	view, _ = view.Update(view.Init()())

	assert.Contains(t, view.View(), "No runs.")
}

func TestView_Keys(t *testing.T) {
	view := NewView(nil, &MockEvaluationService{})
	view, _ = view.Update(messages.RunsLoaded{Runs: []domain.RunOverview{{ID: "a"}, {ID: "b"}}})

	view, _ = view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.selected)
	view, _ = view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.selected)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.IsType(t, messages.RunsLoaded{}, cmd())

	_, cmd = view.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}
