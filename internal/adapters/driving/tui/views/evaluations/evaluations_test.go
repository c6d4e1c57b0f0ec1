package evaluations

import (
	"context"
	"errors"
	"testing"

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
	EvaluationsFunc        func(ctx context.Context) ([]domain.EvaluationOverview, error)
	PartialEvaluationsFunc func(ctx context.Context) ([]domain.PartialEvaluationOverview, error)
}

func (m *MockEvaluationService) Evaluations(ctx context.Context) ([]domain.EvaluationOverview, error) {
	if m.EvaluationsFunc != nil {
		return m.EvaluationsFunc(ctx)
	}
	return nil, nil
}

func (m *MockEvaluationService) PartialEvaluations(ctx context.Context) ([]domain.PartialEvaluationOverview, error) {
	if m.PartialEvaluationsFunc != nil {
		return m.PartialEvaluationsFunc(ctx)
	}
	return nil, nil
}

func TestView_Init(t *testing.T) {
	mock := &MockEvaluationService{
		EvaluationsFunc: func(context.Context) ([]domain.EvaluationOverview, error) {
			return []domain.EvaluationOverview{
				{ID: "eval-1", SuccessfulEvaluationCount: 2, Description: "baseline"},
				{ID: "eval-2", FailedEvaluationCount: 1},
			}, nil
		},
		PartialEvaluationsFunc: func(context.Context) ([]domain.PartialEvaluationOverview, error) {
			return []domain.PartialEvaluationOverview{{ID: "partial-1", SubmittedEvaluationCount: 3}}, nil
		},
	}
	view := NewView(nil, mock)

	cmd := view.Init()
	assert.Contains(t, view.View(), "Loading evaluations...")
	view, _ = view.Update(cmd())

	assert.Len(t, view.Evaluations(), 2)
	assert.Len(t, view.Pending(), 1)
	out := view.View()
	assert.Contains(t, out, "> eval-1")
	assert.Contains(t, out, "ok=2 failed=0  baseline")
	assert.Contains(t, out, "Pending human ratings")
	assert.Contains(t, out, "partial-1  submitted=3")
}

func TestView_LoadError(t *testing.T) {
	mock := &MockEvaluationService{
		PartialEvaluationsFunc: func(context.Context) ([]domain.PartialEvaluationOverview, error) {
			return nil, errors.New("disk full")
		},
	}
	view := NewView(nil, mock)

	view, _ = view.Update(view.Init()())

	assert.Contains(t, view.View(), "Error: disk full")
}

func TestView_NilService(t *testing.T) {
	view := NewView(nil, nil)

	view, _ = view.Update(view.Init()())

	require.Error(t, view.Err())
}

func TestView_Empty(t *testing.T) {
	view := NewView(nil, &MockEvaluationService{})

	view, _ = view.Update(view.Init()())

	assert.Contains(t, view.View(), "No evaluations.")
}

func TestView_SelectEvaluation(t *testing.T) {
	view := NewView(nil, &MockEvaluationService{})
	view, _ = view.Update(messages.EvaluationsLoaded{
		Evaluations: []domain.EvaluationOverview{{ID: "eval-1"}, {ID: "eval-2"}},
		Pending:     []domain.PartialEvaluationOverview{{ID: "partial-1"}},
	})

	view, _ = view.Update(tea.KeyMsg{Type: tea.KeyDown})
	view, _ = view.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.EvaluationSelected{ID: "eval-2"}, cmd())
}

func TestView_SelectWithOnlyPending(t *testing.T) {
	view := NewView(nil, &MockEvaluationService{})
	view, _ = view.Update(messages.EvaluationsLoaded{
		Pending: []domain.PartialEvaluationOverview{{ID: "partial-1"}},
	})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestView_Back(t *testing.T) {
	view := NewView(nil, nil)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}
