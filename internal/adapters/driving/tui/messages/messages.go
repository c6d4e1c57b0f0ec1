// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewKeywords is the keyword extraction playground.
	ViewKeywords
	// ViewDatasets lists datasets.
	ViewDatasets
	// ViewExamples shows the examples of one dataset.
	ViewExamples
	// ViewRuns lists runs.
	ViewRuns
	// ViewEvaluations lists finished and pending evaluations.
	ViewEvaluations
	// ViewEvaluationDetail shows the example results of one evaluation.
	ViewEvaluationDetail
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewKeywords:
		return "keywords"
	case ViewDatasets:
		return "datasets"
	case ViewExamples:
		return "examples"
	case ViewRuns:
		return "runs"
	case ViewEvaluations:
		return "evaluations"
	case ViewEvaluationDetail:
		return "evaluation_detail"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// KeywordsExtracted carries the result of a playground extraction.
type KeywordsExtracted struct {
	Text     string
	Keywords []string
	Err      error
}

// DatasetsLoaded carries the list of datasets.
type DatasetsLoaded struct {
	Datasets []domain.Dataset
	Err      error
}

// DatasetSelected signals a dataset was chosen for the examples view.
type DatasetSelected struct {
	Dataset domain.Dataset
}

// DatasetDeleted signals a dataset was deleted.
type DatasetDeleted struct {
	ID  string
	Err error
}

// ExamplesLoaded carries the examples of a dataset.
type ExamplesLoaded struct {
	DatasetID string
	Examples  []domain.StoredExample
	Err       error
}

// RunsLoaded carries the list of runs.
type RunsLoaded struct {
	Runs []domain.RunOverview
	Err  error
}

// EvaluationsLoaded carries finished and pending evaluations.
type EvaluationsLoaded struct {
	Evaluations []domain.EvaluationOverview
	Pending     []domain.PartialEvaluationOverview
	Err         error
}

// EvaluationSelected signals an evaluation was chosen for the detail view.
type EvaluationSelected struct {
	ID string
}

// EvaluationLoaded carries an evaluation with its example results.
type EvaluationLoaded struct {
	Overview    *domain.EvaluationOverview
	Evaluations []domain.ExampleEvaluation
	Err         error
}
