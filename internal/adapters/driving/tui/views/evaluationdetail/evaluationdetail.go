// Package evaluationdetail shows the per-example results of one evaluation.
package evaluationdetail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
	"github.com/custodia-labs/intelligence-layer/internal/core/services"
)

// maxRating is the top of the human rating scale.
const maxRating = 5

// result is the union of automatic keyword scores and human ratings.
type result struct {
	Precision  *float64 `json:"precision"`
	Recall     *float64 `json:"recall"`
	F1         *float64 `json:"f1"`
	Missing    []string `json:"missing"`
	Unexpected []string `json:"unexpected"`
	Score      *int     `json:"score"`
}

// View shows an evaluation overview, its aggregated scores and one row per example.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	keys    *keymap.KeyMap
	service driving.EvaluationService

	id           string
	overview     *domain.EvaluationOverview
	evaluations  []domain.ExampleEvaluation
	lines        []string
	scrollOffset int
	loading      bool
	err          error
	width        int
	height       int
}

// NewView creates an evaluation detail view.
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

// SetEvaluation switches to the evaluation with id and loads it.
func (v *View) SetEvaluation(id string) tea.Cmd {
	v.id = id
	v.overview = nil
	v.evaluations = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true

	ctx, service := v.ctx, v.service
	return func() tea.Msg {
		if service == nil {
			return messages.EvaluationLoaded{Err: errors.New("evaluations not available")}
		}
		overview, evaluations, err := service.Evaluation(ctx, id)
		return messages.EvaluationLoaded{Overview: overview, Evaluations: evaluations, Err: err}
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch key := msg.String(); {
		case keymap.Matches(key, v.keys.Up):
			v.scrollOffset = max(v.scrollOffset-1, 0)
		case keymap.Matches(key, v.keys.Down):
			v.scrollOffset = min(v.scrollOffset+1, v.maxScrollOffset())
		case keymap.Matches(key, v.keys.PageUp):
			v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
		case keymap.Matches(key, v.keys.PageDown):
			v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
		case keymap.Matches(key, v.keys.Back):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewEvaluations}
			}
		}

	case messages.EvaluationLoaded:
		if msg.Overview != nil && msg.Overview.ID != v.id {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.overview = msg.Overview
			v.evaluations = msg.Evaluations
			v.lines = v.renderRows()
		}
	}

	return v, nil
}

// renderRows renders the summary and one row per example evaluation.
func (v *View) renderRows() []string {
	var (
		lines    []string
		keywords []domain.ExampleEvaluation
		ratings  []int
	)

	rows := make([]string, 0, len(v.evaluations))
	for _, evaluation := range v.evaluations {
		if evaluation.Failed() {
			rows = append(rows, v.styles.Error.Render(fmt.Sprintf("  %-20s failed: %s", evaluation.ExampleID, evaluation.Error)))
			continue
		}

		var r result
		if err := json.Unmarshal(evaluation.Result, &r); err != nil {
			rows = append(rows, v.styles.Error.Render(fmt.Sprintf("  %-20s unreadable result: %v", evaluation.ExampleID, err)))
			continue
		}

		switch {
		case r.Score != nil:
			ratings = append(ratings, *r.Score)
			rows = append(rows, fmt.Sprintf("  %-20s rating %s",
				evaluation.ExampleID, v.styles.Rating(*r.Score, maxRating).Render(fmt.Sprintf("%d/%d", *r.Score, maxRating))))
		case r.Precision != nil && r.Recall != nil:
			keywords = append(keywords, evaluation)
			row := fmt.Sprintf("  %-20s P %s  R %s", evaluation.ExampleID,
				v.renderScore(*r.Precision), v.renderScore(*r.Recall))
			if r.F1 != nil {
				row += "  F1 " + v.renderScore(*r.F1)
			}
			rows = append(rows, row)
			if len(r.Missing) > 0 {
				rows = append(rows, v.styles.Muted.Render("      missing: "+strings.Join(r.Missing, ", ")))
			}
			if len(r.Unexpected) > 0 {
				rows = append(rows, v.styles.Muted.Render("      unexpected: "+strings.Join(r.Unexpected, ", ")))
			}
		default:
			rows = append(rows, v.styles.Muted.Render(fmt.Sprintf("  %-20s %s", evaluation.ExampleID, evaluation.Result)))
		}
	}

	if len(keywords) > 0 {
		if agg, err := services.AggregateKeywordEvaluations(keywords); err == nil && agg.Count > 0 {
			lines = append(lines,
				v.styles.Subtitle.Render("Keyword scores"),
				fmt.Sprintf("  Examples:  %d", agg.Count),
				"  Precision: "+v.renderScore(agg.MeanPrecision),
				"  Recall:    "+v.renderScore(agg.MeanRecall),
				"  F1:        "+v.renderScore(agg.MeanF1),
				"")
		}
	}
	if len(ratings) > 0 {
		total := 0
		for _, rating := range ratings {
			total += rating
		}
		mean := float64(total) / float64(len(ratings))
		lines = append(lines,
			v.styles.Subtitle.Render("Human ratings"),
			fmt.Sprintf("  Rated:     %d", len(ratings)),
			"  Mean:      "+v.styles.Score(mean/maxRating).Render(fmt.Sprintf("%.2f/%d", mean, maxRating)),
			"")
	}

	lines = append(lines, v.styles.Subtitle.Render("Examples"))
	return append(lines, rows...)
}

func (v *View) renderScore(score float64) string {
	return v.styles.Score(score).Render(fmt.Sprintf("%.3f", score))
}

func (v *View) visibleLines() int {
	return max(v.height-12, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the evaluation.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Evaluation " + v.id))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading evaluation..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.overview != nil:
		o := v.overview
		b.WriteString(v.styles.Normal.Render(fmt.Sprintf("Runs: %s", strings.Join(o.RunOverviewIDs, ", "))))
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(fmt.Sprintf("Successful: %d", o.SuccessfulEvaluationCount)))
		b.WriteString("  ")
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Failed: %d", o.FailedEvaluationCount)))
		if o.Description != "" {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(o.Description))
		}
		b.WriteString("\n\n")

		end := min(v.scrollOffset+v.visibleLines(), len(v.lines))
		for _, line := range v.lines[v.scrollOffset:end] {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keys.Up, v.keys.Down, v.keys.PageDown, v.keys.Back)))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

// Lines returns the rendered summary and example rows.
func (v *View) Lines() []string {
	return v.lines
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
