// Package styles provides the colour palette and lipgloss styles of the TUI.
//
// Besides the usual text styles it grades scores: precision, recall and F1
// values between 0 and 1 and human ratings on a 1 to N scale are coloured
// by the band they fall into.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette of the TUI.
type Theme struct {
	// Accent colours titles and the selection bar.
	Accent lipgloss.Color

	// Highlight colours section headers and keyword chips.
	Highlight lipgloss.Color

	// Surface is the dark background used for text on chips.
	Surface lipgloss.Color

	// Text is the default foreground.
	Text lipgloss.Color

	// Dim is for hints, metadata and help lines.
	Dim lipgloss.Color

	// Good, Fair and Poor colour the score bands.
	Good lipgloss.Color
	Fair lipgloss.Color
	Poor lipgloss.Color

	// Outline colours input borders.
	Outline lipgloss.Color
}

// DefaultTheme returns the default palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#7C3AED"),
		Highlight: lipgloss.Color("#06B6D4"),
		Surface:   lipgloss.Color("#1E1E2E"),
		Text:      lipgloss.Color("#CDD6F4"),
		Dim:       lipgloss.Color("#6C7086"),
		Good:      lipgloss.Color("#A6E3A1"),
		Fair:      lipgloss.Color("#F9E2AF"),
		Poor:      lipgloss.Color("#F38BA8"),
		Outline:   lipgloss.Color("#45475A"),
	}
}

// ScoreBands are the lower bounds of the good and fair bands. Anything
// below Fair is poor.
type ScoreBands struct {
	Good float64
	Fair float64
}

// DefaultScoreBands returns the bands used for keyword scores.
func DefaultScoreBands() ScoreBands {
	return ScoreBands{Good: 0.75, Fair: 0.4}
}

// Styles holds the lipgloss styles every view renders with.
type Styles struct {
	theme *Theme
	bands ScoreBands

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style

	// Success, Warning and Error double as the score band styles.
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// InputField frames the keyword playground input.
	InputField lipgloss.Style

	// Keyword renders one extracted keyword as a chip.
	Keyword lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,
		bands: DefaultScoreBands(),

		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Highlight),
		Normal:   lipgloss.NewStyle().Foreground(theme.Text),
		Muted:    lipgloss.NewStyle().Foreground(theme.Dim),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(theme.Text).Background(theme.Accent),
		Help:     lipgloss.NewStyle().Foreground(theme.Dim),

		Success: lipgloss.NewStyle().Foreground(theme.Good),
		Warning: lipgloss.NewStyle().Foreground(theme.Fair),
		Error:   lipgloss.NewStyle().Foreground(theme.Poor),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Outline).
			Padding(0, 1),

		Keyword: lipgloss.NewStyle().
			Foreground(theme.Surface).
			Background(theme.Highlight).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette these styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// WithScoreBands returns a copy of the styles grading with other bands.
func (s *Styles) WithScoreBands(bands ScoreBands) *Styles {
	c := *s
	c.bands = bands
	return &c
}

// Score picks the band style for a score between 0 and 1.
func (s *Styles) Score(score float64) lipgloss.Style {
	switch {
	case score >= s.bands.Good:
		return s.Success
	case score >= s.bands.Fair:
		return s.Warning
	default:
		return s.Error
	}
}

// Rating picks the band style for a rating from 1 to maxRating.
func (s *Styles) Rating(rating, maxRating int) lipgloss.Style {
	if maxRating <= 1 {
		return s.Score(1)
	}
	return s.Score(float64(rating-1) / float64(maxRating-1))
}
