// Package keywords provides the keyword extraction playground view.
package keywords

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

// ErrServiceUnavailable is returned when no keyword service is configured.
var ErrServiceUnavailable = errors.New("keyword extraction not available: configure the model token")

// View is the keyword playground. Text typed into the input is sent to the
// keyword service and the extracted keywords are listed below it.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	keys    *keymap.KeyMap
	service driving.KeywordService
	input   *input.TextInput

	languages []domain.Language
	language  int

	text     string
	keywords []string
	loading  bool
	err      error
	width    int
	height   int
}

// NewView creates a playground view. service may be nil.
func NewView(s *styles.Styles, service driving.KeywordService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	languages := []domain.Language{"en"}
	if service != nil {
		if supported := service.SupportedLanguages(); len(supported) > 0 {
			languages = supported
		}
	}

	return &View{
		ctx:       context.Background(),
		styles:    s,
		keys:      keymap.DefaultKeyMap(),
		service:   service,
		input:     input.NewTextInput(s, "Text", "Type a sentence and press enter..."),
		languages: languages,
	}
}

// SetContext sets the context extraction requests run under.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the playground.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch key := msg.String(); {
		case keymap.Matches(key, v.keys.Back):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		case keymap.Matches(key, v.keys.Extract):
			return v, v.extract()
		case keymap.Matches(key, v.keys.Language):
			v.language = (v.language + 1) % len(v.languages)
			return v, nil
		}

	case messages.KeywordsExtracted:
		v.loading = false
		v.text = msg.Text
		v.keywords = msg.Keywords
		v.err = msg.Err
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) extract() tea.Cmd {
	text := strings.TrimSpace(v.input.Value())
	if text == "" {
		return nil
	}
	if v.service == nil {
		v.err = ErrServiceUnavailable
		return nil
	}

	v.loading = true
	v.err = nil
	ctx, service, language := v.ctx, v.service, v.Language()
	return func() tea.Msg {
		keywords, err := service.Extract(ctx, domain.TextChunk(text), language)
		return messages.KeywordsExtracted{Text: text, Keywords: keywords, Err: err}
	}
}

// View renders the playground.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Keywords playground"))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("language: %s", v.Language())))
	b.WriteString("\n\n")
	b.WriteString(v.input.View())
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Extracting keywords..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.text != "" && len(v.keywords) == 0:
		b.WriteString(v.styles.Muted.Render("No keywords found."))
	case v.text != "":
		b.WriteString(v.styles.Subtitle.Render("Keywords"))
		b.WriteString("\n")
		chips := make([]string, len(v.keywords))
		for i, keyword := range v.keywords {
			chips[i] = v.styles.Keyword.Render(keyword)
		}
		b.WriteString(strings.Join(chips, " "))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keys.Language, v.keys.Extract, v.keys.Back)))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
}

// Reset clears the input and the last result.
func (v *View) Reset() {
	v.input.Reset()
	v.text = ""
	v.keywords = nil
	v.loading = false
	v.err = nil
}

// Language returns the language extraction requests use.
func (v *View) Language() domain.Language {
	return v.languages[v.language]
}

// Keywords returns the keywords of the last extraction.
func (v *View) Keywords() []string {
	return v.keywords
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
