// Package evaluations provides the list of finished and pending evaluations.
package evaluations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

// View lists evaluations. Only finished evaluations can be opened; pending
// ones are shown below them until their ratings are retrieved.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	keys    *keymap.KeyMap
	service driving.EvaluationService

	evaluations []domain.EvaluationOverview
	pending     []domain.PartialEvaluationOverview
	selected    int
	loading     bool
	err         error
	width       int
	height      int
}

// NewView creates an evaluation list view. service may be nil.
func NewView(s *styles.Styles, service driving.EvaluationService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:     context.Background(),
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
		service: service,
	}
}

// SetContext sets the context service calls run under.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init loads finished and pending evaluations.
func (v *View) Init() tea.Cmd {
	v.loading = true
	ctx, service := v.ctx, v.service
	return func() tea.Msg {
		if service == nil {
			return messages.EvaluationsLoaded{Err: errors.New("evaluations not available: configure the model token")}
		}
		evaluations, err := service.Evaluations(ctx)
		if err != nil {
			return messages.EvaluationsLoaded{Err: err}
		}
		pending, err := service.PartialEvaluations(ctx)
		return messages.EvaluationsLoaded{Evaluations: evaluations, Pending: pending, Err: err}
	}
}

// Update handles messages for the evaluation list.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch key := msg.String(); {
		case keymap.Matches(key, v.keys.Up):
			if v.selected > 0 {
				v.selected--
			}
		case keymap.Matches(key, v.keys.Down):
			if v.selected < len(v.evaluations)-1 {
				v.selected++
			}
		case keymap.Matches(key, v.keys.Select):
			if v.selected < len(v.evaluations) {
				id := v.evaluations[v.selected].ID
				return v, func() tea.Msg {
					return messages.EvaluationSelected{ID: id}
				}
			}
		case keymap.Matches(key, v.keys.Reload):
			return v, v.Init()
		case keymap.Matches(key, v.keys.Back):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}

	case messages.EvaluationsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.evaluations = msg.Evaluations
			v.pending = msg.Pending
			v.selected = min(v.selected, max(len(v.evaluations)-1, 0))
		}
	}

	return v, nil
}

// View renders the evaluation list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Evaluations (%d)", len(v.evaluations))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading evaluations..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.evaluations) == 0 && len(v.pending) == 0:
		b.WriteString(v.styles.Muted.Render("No evaluations."))
	default:
		for i, evaluation := range v.evaluations {
			line := fmt.Sprintf("%s  %s  ok=%d failed=%d  %s",
				evaluation.ID, evaluation.StartDate.Format(time.DateTime),
				evaluation.SuccessfulEvaluationCount, evaluation.FailedEvaluationCount, evaluation.Description)
			if i == v.selected {
				b.WriteString(v.styles.Selected.Render("> " + line))
			} else {
				b.WriteString(v.styles.Normal.Render("  " + line))
			}
			b.WriteString("\n")
		}
		if len(v.pending) > 0 {
			b.WriteString("\n")
			b.WriteString(v.styles.Subtitle.Render("Pending human ratings"))
			b.WriteString("\n")
			for _, partial := range v.pending {
				b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %s  submitted=%d  %s",
					partial.ID, partial.SubmittedEvaluationCount, partial.Description)))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keys.ListHelp()...)))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Evaluations returns the finished evaluations.
func (v *View) Evaluations() []domain.EvaluationOverview {
	return v.evaluations
}

// Pending returns the evaluations waiting for human ratings.
func (v *View) Pending() []domain.PartialEvaluationOverview {
	return v.pending
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
