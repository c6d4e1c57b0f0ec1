// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/styles"
)

// Item is a menu entry. Selecting it switches to View, or quits when Quit
// is set.
type Item struct {
	Label       string
	Description string
	View        messages.ViewType
	Quit        bool
}

// View represents the main menu view.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// DefaultItems returns the menu entries. The keyword playground is only
// offered when keyword extraction is available.
func DefaultItems(withKeywords bool) []Item {
	items := make([]Item, 0, 6)
	if withKeywords {
		items = append(items, Item{
			Label:       "Keywords playground",
			Description: "Extract keywords from a text with the configured model",
			View:        messages.ViewKeywords,
		})
	}
	return append(items,
		Item{Label: "Datasets", Description: "Browse datasets and their examples", View: messages.ViewDatasets},
		Item{Label: "Runs", Description: "Keyword extraction runs over a dataset", View: messages.ViewRuns},
		Item{Label: "Evaluations", Description: "Scores and human ratings of runs", View: messages.ViewEvaluations},
		Item{Label: "Help", Description: "Keys and related commands", View: messages.ViewHelp},
		Item{Label: "Quit", Quit: true},
	)
}

// NewView creates a new menu view.
func NewView(s *styles.Styles, items []Item) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if len(items) == 0 {
		items = DefaultItems(false)
	}

	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		items:  items,
		width:  80,
		height: 24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch key := msg.String(); {
		case keymap.Matches(key, v.keys.Up):
			if v.selected > 0 {
				v.selected--
			}
		case keymap.Matches(key, v.keys.Down):
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case keymap.Matches(key, v.keys.Select):
			return v, v.open()
		case key == "q":
			return v, tea.Quit
		case len(key) == 1 && key[0] >= '1' && key[0] <= '9':
			if n := int(key[0] - '1'); n < len(v.items) {
				v.selected = n
				return v, v.open()
			}
		}
	}

	return v, nil
}

// open returns the command for the selected item.
func (v *View) open() tea.Cmd {
	item := v.items[v.selected]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Intelligence Layer"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Keyword extraction benchmark"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		line := fmt.Sprintf("%d %s", i+1, item.Label)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if desc := v.items[v.selected].Description; desc != "" {
		b.WriteString(v.styles.Muted.Render(desc))
	}
	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keys.Up, v.keys.Down, v.keys.Select, v.keys.Quit) + "  [1-9] jump"))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}
