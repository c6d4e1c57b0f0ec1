package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/tracing"
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	enumeratorTint = lipgloss.NewStyle().Foreground(lipgloss.Color("#45475A")).MarginRight(1)
)

// maxValueLength caps values rendered into trees.
const maxValueLength = 120

// datasetTree renders a dataset with one branch per example.
func datasetTree(dataset domain.Dataset, examples []domain.StoredExample) *tree.Tree {
	root := newTree(titleStyle.Render(dataset.Name) + " " + mutedStyle.Render(dataset.ID))
	for _, example := range examples {
		root.Child(newTree("Example "+example.ID).Child(
			"Input: "+truncate(string(example.Input)),
			"Expected output: "+truncate(string(example.ExpectedOutput)),
		))
	}
	return root
}

// traceTree renders recorded spans, children below their parent.
func traceTree(roots []*tracing.SpanRecord) *tree.Tree {
	root := newTree(titleStyle.Render("Trace"))
	for _, span := range roots {
		root.Child(spanTree(span))
	}
	return root
}

func spanTree(span *tracing.SpanRecord) *tree.Tree {
	label := span.Name
	if span.Ended() {
		label += " " + mutedStyle.Render(span.EndTime.Sub(span.StartTime).Round(time.Millisecond).String())
	}
	node := newTree(label)

	if span.IsTask {
		node.Child("Input: " + truncate(renderValue(span.Input)))
	}
	for _, entry := range span.Entries {
		node.Child(fmt.Sprintf("%s: %s", entry.Message, truncate(renderValue(entry.Value))))
	}
	for _, child := range span.Children {
		node.Child(spanTree(child))
	}
	if span.Error != "" {
		node.Child(errorStyle.Render("Error: " + span.Error))
	} else if span.IsTask && span.Output != nil {
		node.Child("Output: " + truncate(renderValue(span.Output)))
	}
	return node
}

func newTree(root string) *tree.Tree {
	return tree.Root(root).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumeratorTint)
}

func renderValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxValueLength {
		return s
	}
	return string(runes[:maxValueLength]) + "..."
}
