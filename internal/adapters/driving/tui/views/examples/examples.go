// Package examples provides a scrollable view of the examples of one dataset.
package examples

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

// View shows the examples of a dataset.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	keys    *keymap.KeyMap
	service driving.DatasetService

	dataset      *domain.Dataset
	examples     []domain.StoredExample
	lines        []string
	scrollOffset int
	loading      bool
	err          error
	width        int
	height       int
}

// NewView creates an examples view.
func NewView(s *styles.Styles, service driving.DatasetService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:     context.Background(),
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
		service: service,
		width:   80,
		height:  24,
	}
}

// SetContext sets the context service calls run under.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// SetDataset switches to dataset and loads its examples.
func (v *View) SetDataset(dataset domain.Dataset) tea.Cmd {
	v.dataset = &dataset
	v.examples = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true

	ctx, service := v.ctx, v.service
	return func() tea.Msg {
		if service == nil {
			return messages.ExamplesLoaded{DatasetID: dataset.ID, Err: errors.New("dataset service not available")}
		}
		examples, err := service.Examples(ctx, dataset.ID)
		return messages.ExamplesLoaded{DatasetID: dataset.ID, Examples: examples, Err: err}
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the examples view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.ExamplesLoaded:
		if v.dataset == nil || msg.DatasetID != v.dataset.ID {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.examples = msg.Examples
			v.wrapContent()
		}
	}

	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch key := msg.String(); {
	case keymap.Matches(key, v.keys.Up):
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case keymap.Matches(key, v.keys.Down):
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case keymap.Matches(key, v.keys.PageUp):
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case keymap.Matches(key, v.keys.PageDown):
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case keymap.Matches(key, v.keys.Top):
		v.scrollOffset = 0
	case keymap.Matches(key, v.keys.Bottom):
		v.scrollOffset = v.maxScrollOffset()
	case keymap.Matches(key, v.keys.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDatasets}
		}
	}
	return v, nil
}

// wrapContent renders every example into lines that fit the view width.
func (v *View) wrapContent() {
	contentWidth := max(v.width-4, 20)

	v.lines = v.lines[:0]
	for _, example := range v.examples {
		v.lines = append(v.lines, "Example "+example.ID)
		v.lines = appendWrapped(v.lines, "  Input: "+string(example.Input), contentWidth)
		v.lines = appendWrapped(v.lines, "  Expected output: "+string(example.ExpectedOutput), contentWidth)
		v.lines = append(v.lines, "")
	}
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

func appendWrapped(lines []string, line string, width int) []string {
	runes := []rune(line)
	for len(runes) > width {
		lines = append(lines, string(runes[:width]))
		runes = runes[width:]
	}
	return append(lines, string(runes))
}

func (v *View) visibleLines() int {
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the examples.
func (v *View) View() string {
	var b strings.Builder

	name := "Unknown"
	if v.dataset != nil {
		name = v.dataset.Name
	}
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Examples - %s (%d)", name, len(v.examples))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading examples..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.examples) == 0:
		b.WriteString(v.styles.Muted.Render("This dataset has no examples."))
	default:
		end := min(v.scrollOffset+v.visibleLines(), len(v.lines))
		for _, line := range v.lines[v.scrollOffset:end] {
			if strings.HasPrefix(line, "Example ") {
				b.WriteString(v.styles.Subtitle.Render(line))
			} else {
				b.WriteString(v.styles.Normal.Render(line))
			}
			b.WriteString("\n")
		}
		if len(v.lines) > v.visibleLines() {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [line %d of %d]", v.scrollOffset+1, len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keys.Up, v.keys.Down, v.keys.PageDown, v.keys.Back)))
	return b.String()
}

// SetDimensions sets the view dimensions and rewraps the content.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.wrapContent()
}

// Examples returns the loaded examples.
func (v *View) Examples() []domain.StoredExample {
	return v.examples
}

// ScrollOffset returns the index of the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
