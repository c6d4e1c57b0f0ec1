package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse datasets, runs and evaluations interactively",
	Long: `Launch the interactive terminal UI.

Datasets and their examples can be browsed without a model token. The keyword
playground, runs and evaluations need the model API to be configured.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Open / Extract
  d        - Delete dataset
  r        - Reload
  Esc      - Back
  q        - Quit`,
	RunE: runBrowse,
}

// runApp starts the program. Tests replace it to avoid taking over the terminal.
var runApp = (*tui.App).Run

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) (err error) {
	if datasetService == nil {
		return errors.New("dataset service not configured")
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("panic in TUI: %v", r)
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Datasets:    datasetService,
		Evaluations: evaluationService,
		Keywords:    keywordService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := runApp(app.WithContext(cmd.Context())); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
