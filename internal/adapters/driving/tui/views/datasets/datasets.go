// Package datasets provides the dataset list view for the TUI.
package datasets

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

var errServiceUnavailable = errors.New("dataset service not available")

// View lists datasets. Enter opens the examples of the highlighted dataset,
// d asks for confirmation and deletes it.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	keys    *keymap.KeyMap
	service driving.DatasetService

	datasets      []domain.Dataset
	selected      int
	scrollOffset  int
	confirmDelete bool
	loading       bool
	err           error
	width         int
	height        int
}

// NewView creates a dataset list view.
func NewView(s *styles.Styles, service driving.DatasetService) *View {
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

// Init loads the datasets.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.confirmDelete = false
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx, service := v.ctx, v.service
	return func() tea.Msg {
		if service == nil {
			return messages.DatasetsLoaded{Err: errServiceUnavailable}
		}
		datasets, err := service.List(ctx)
		return messages.DatasetsLoaded{Datasets: datasets, Err: err}
	}
}

func (v *View) delete(id string) tea.Cmd {
	ctx, service := v.ctx, v.service
	return func() tea.Msg {
		if service == nil {
			return messages.DatasetDeleted{ID: id, Err: errServiceUnavailable}
		}
		return messages.DatasetDeleted{ID: id, Err: service.Delete(ctx, id)}
	}
}

// Update handles messages for the dataset list.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		if v.confirmDelete {
			return v.handleConfirmKey(msg)
		}
		return v.handleKey(msg)

	case messages.DatasetsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.datasets = msg.Datasets
			if v.selected >= len(v.datasets) {
				v.selected = max(len(v.datasets)-1, 0)
			}
			v.adjustScroll()
		}

	case messages.DatasetDeleted:
		if msg.Err != nil {
			v.err = fmt.Errorf("delete dataset %s: %w", msg.ID, msg.Err)
			return v, nil
		}
		v.loading = true
		return v, v.load()
	}

	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch key := msg.String(); {
	case keymap.Matches(key, v.keys.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keys.Down):
		if v.selected < len(v.datasets)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keys.Select):
		if dataset := v.SelectedDataset(); dataset != nil {
			selected := *dataset
			return v, func() tea.Msg {
				return messages.DatasetSelected{Dataset: selected}
			}
		}
	case keymap.Matches(key, v.keys.Delete):
		if v.SelectedDataset() != nil {
			v.confirmDelete = true
		}
	case keymap.Matches(key, v.keys.Reload):
		v.loading = true
		return v, v.load()
	case keymap.Matches(key, v.keys.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirmDelete = false
	if msg.String() != "y" {
		return v, nil
	}
	dataset := v.SelectedDataset()
	if dataset == nil {
		return v, nil
	}
	return v, v.delete(dataset.ID)
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	return max(v.height-8, 1)
}

// View renders the dataset list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Datasets (%d)", len(v.datasets))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading datasets..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.datasets) == 0:
		b.WriteString(v.styles.Muted.Render("No datasets. Import one with 'ilayer dataset import'."))
	default:
		visible := v.visibleItemCount()
		end := min(v.scrollOffset+visible, len(v.datasets))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderDataset(i))
			b.WriteString("\n")
		}
		if len(v.datasets) > visible {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.datasets))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	if v.confirmDelete {
		if dataset := v.SelectedDataset(); dataset != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete dataset %s? [y] yes  [any key] cancel", dataset.Name)))
			return b.String()
		}
	}
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(
		v.keys.Up, v.keys.Down, v.keys.Select, v.keys.Delete, v.keys.Reload, v.keys.Back)))

	return b.String()
}

func (v *View) renderDataset(index int) string {
	dataset := v.datasets[index]
	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %-24s %s", dataset.Name, dataset.ID))
	}
	return v.styles.Normal.Render(fmt.Sprintf("  %-24s ", dataset.Name)) + v.styles.Muted.Render(dataset.ID)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.adjustScroll()
}

// Datasets returns the loaded datasets.
func (v *View) Datasets() []domain.Dataset {
	return v.datasets
}

// SelectedDataset returns the highlighted dataset or nil.
func (v *View) SelectedDataset() *domain.Dataset {
	if v.selected < len(v.datasets) {
		return &v.datasets[v.selected]
	}
	return nil
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
