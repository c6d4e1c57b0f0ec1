package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/views/datasets"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/views/evaluationdetail"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/views/evaluations"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/views/examples"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/views/keywords"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui/views/runs"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context service calls run under.
	ctx context.Context

	styles *styles.Styles
	keys   *keymap.KeyMap

	menuView             *menu.View
	keywordsView         *keywords.View
	datasetsView         *datasets.View
	examplesView         *examples.View
	runsView             *runs.View
	evaluationsView      *evaluations.View
	evaluationDetailView *evaluationdetail.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has received its dimensions.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:                ports,
		ctx:                  context.Background(),
		styles:               s,
		keys:                 keymap.DefaultKeyMap(),
		menuView:             menu.NewView(s, menu.DefaultItems(ports.Keywords != nil)),
		keywordsView:         keywords.NewView(s, ports.Keywords),
		datasetsView:         datasets.NewView(s, ports.Datasets),
		examplesView:         examples.NewView(s, ports.Datasets),
		runsView:             runs.NewView(s, ports.Evaluations),
		evaluationsView:      evaluations.NewView(s, ports.Evaluations),
		evaluationDetailView: evaluationdetail.NewView(s, ports.Evaluations),
		currentView:          messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.keywordsView.SetContext(ctx)
	a.datasetsView.SetContext(ctx)
	a.examplesView.SetContext(ctx)
	a.runsView.SetContext(ctx)
	a.evaluationsView.SetContext(ctx)
	a.evaluationDetailView.SetContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("ilayer - Intelligence Layer"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.updateCurrent(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.DatasetSelected:
		a.currentView = messages.ViewExamples
		return a, a.examplesView.SetDataset(msg.Dataset)

	case messages.EvaluationSelected:
		a.currentView = messages.ViewEvaluationDetail
		return a, a.evaluationDetailView.SetEvaluation(msg.ID)

	case messages.KeywordsExtracted:
		a.keywordsView, cmd = a.keywordsView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.DatasetsLoaded, messages.DatasetDeleted:
		a.datasetsView, cmd = a.datasetsView.Update(msg)
		a.err = a.datasetsView.Err()
		return a, cmd

	case messages.ExamplesLoaded:
		a.examplesView, cmd = a.examplesView.Update(msg)
		a.err = a.examplesView.Err()
		return a, cmd

	case messages.RunsLoaded:
		a.runsView, cmd = a.runsView.Update(msg)
		a.err = a.runsView.Err()
		return a, cmd

	case messages.EvaluationsLoaded:
		a.evaluationsView, cmd = a.evaluationsView.Update(msg)
		a.err = a.evaluationsView.Err()
		return a, cmd

	case messages.EvaluationLoaded:
		a.evaluationDetailView, cmd = a.evaluationDetailView.Update(msg)
		a.err = a.evaluationDetailView.Err()
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.updateCurrent(msg)
}

// updateCurrent forwards msg to the active view.
func (a *App) updateCurrent(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewKeywords:
		a.keywordsView, cmd = a.keywordsView.Update(msg)
	case messages.ViewDatasets:
		a.datasetsView, cmd = a.datasetsView.Update(msg)
	case messages.ViewExamples:
		a.examplesView, cmd = a.examplesView.Update(msg)
	case messages.ViewRuns:
		a.runsView, cmd = a.runsView.Update(msg)
	case messages.ViewEvaluations:
		a.evaluationsView, cmd = a.evaluationsView.Update(msg)
	case messages.ViewEvaluationDetail:
		a.evaluationDetailView, cmd = a.evaluationDetailView.Update(msg)
	case messages.ViewHelp:
		if key, ok := msg.(tea.KeyMsg); ok && keymap.Matches(key.String(), a.keys.Back) {
			a.currentView = messages.ViewMenu
		}
	}
	return cmd
}

// switchTo activates view and runs its initial command.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.currentView = view
	a.err = nil

	switch view {
	case messages.ViewKeywords:
		a.keywordsView.Reset()
		return a.keywordsView.Init()
	case messages.ViewDatasets:
		return a.datasetsView.Init()
	case messages.ViewRuns:
		return a.runsView.Init()
	case messages.ViewEvaluations:
		return a.evaluationsView.Init()
	case messages.ViewMenu, messages.ViewExamples, messages.ViewEvaluationDetail, messages.ViewHelp:
		// Detail views are loaded by their selection messages.
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewKeywords:
		return a.keywordsView.View()
	case messages.ViewDatasets:
		return a.datasetsView.View()
	case messages.ViewExamples:
		return a.examplesView.View()
	case messages.ViewRuns:
		return a.runsView.View()
	case messages.ViewEvaluations:
		return a.evaluationsView.View()
	case messages.ViewEvaluationDetail:
		return a.evaluationDetailView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders every keybinding grouped as in the keymap.
func (a *App) viewHelp() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keys.FullHelp() {
		for _, binding := range group {
			help := binding.Help()
			b.WriteString(fmt.Sprintf("  %-12s %s\n", help.Key, help.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Muted.Render("Datasets are imported and runs are started from the command line:"))
	b.WriteString("\n")
	b.WriteString(a.styles.Muted.Render("  ilayer dataset import, ilayer run keywords, ilayer evaluation run"))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render(keymap.HelpLine(a.keys.Back)))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions of the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.keywordsView.SetDimensions(width, height)
	a.datasetsView.SetDimensions(width, height)
	a.examplesView.SetDimensions(width, height)
	a.runsView.SetDimensions(width, height)
	a.evaluationsView.SetDimensions(width, height)
	a.evaluationDetailView.SetDimensions(width, height)
}
