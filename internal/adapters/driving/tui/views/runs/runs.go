// Package runs provides the run list view for the TUI.
package runs

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

// View lists run overviews, newest first.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	keys    *keymap.KeyMap
	service driving.EvaluationService

	runs         []domain.RunOverview
	selected     int
	scrollOffset int
	loading      bool
	err          error
	width        int
	height       int
}

// NewView creates a run list view. service may be nil.
func NewView(s *styles.Styles, service driving.EvaluationService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:     context.Background(),
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
		service: service,
		height:  24,
	}
}

// SetContext sets the context service calls run under.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init loads the runs.
func (v *View) Init() tea.Cmd {
	v.loading = true
	ctx, service := v.ctx, v.service
	return func() tea.Msg {
		if service == nil {
			return messages.RunsLoaded{Err: errors.New("runs not available: configure the model token")}
		}
		runs, err := service.Runs(ctx)
		return messages.RunsLoaded{Runs: runs, Err: err}
	}
}

// Update handles messages for the run list.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch key := msg.String(); {
		case keymap.Matches(key, v.keys.Up):
			if v.selected > 0 {
				v.selected--
				v.adjustScroll()
			}
		case keymap.Matches(key, v.keys.Down):
			if v.selected < len(v.runs)-1 {
				v.selected++
				v.adjustScroll()
			}
		case keymap.Matches(key, v.keys.Reload):
			return v, v.Init()
		case keymap.Matches(key, v.keys.Back):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}

	case messages.RunsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.runs = make([]domain.RunOverview, len(msg.Runs))
			for i, run := range msg.Runs {
				v.runs[len(msg.Runs)-1-i] = run
			}
			v.selected = min(v.selected, max(len(v.runs)-1, 0))
			v.adjustScroll()
		}
	}

	return v, nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

// visibleItemCount returns how many runs fit. Each run takes two lines.
func (v *View) visibleItemCount() int {
	return max((v.height-8)/2, 1)
}

// View renders the run list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Runs (%d)", len(v.runs))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading runs..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.runs) == 0:
		b.WriteString(v.styles.Muted.Render("No runs. Start one with 'ilayer run keywords'."))
	default:
		end := min(v.scrollOffset+v.visibleItemCount(), len(v.runs))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderRun(i))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keys.Up, v.keys.Down, v.keys.Reload, v.keys.Back)))
	return b.String()
}

func (v *View) renderRun(index int) string {
	run := v.runs[index]

	header := fmt.Sprintf("%s  %s", run.ID, run.StartDate.Format(time.DateTime))
	if index == v.selected {
		header = v.styles.Selected.Render("> " + header)
	} else {
		header = v.styles.Normal.Render("  " + header)
	}

	counts := v.styles.Success.Render(fmt.Sprintf("ok=%d", run.SuccessfulExampleCount))
	if run.FailedExampleCount > 0 {
		counts += " " + v.styles.Error.Render(fmt.Sprintf("failed=%d", run.FailedExampleCount))
	} else {
		counts += " " + v.styles.Muted.Render("failed=0")
	}
	detail := fmt.Sprintf("    dataset=%s %s", run.DatasetID, counts)
	if run.Description != "" {
		detail += v.styles.Muted.Render("  " + run.Description)
	}

	return header + "\n" + detail + "\n"
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.adjustScroll()
}

// Runs returns the loaded runs, newest first.
func (v *View) Runs() []domain.RunOverview {
	return v.runs
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
