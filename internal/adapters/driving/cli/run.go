package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run tasks over datasets",
	Long:  `Run a task over every example of a dataset and store its outputs.`,
}

var runKeywordsCmd = &cobra.Command{
	Use:   "keywords [dataset-id]",
	Short: "Run keyword extraction over a dataset",
	Long: `Run keyword extraction over every example of a dataset. Examples must have
the input {"chunk": "...", "language": "en"} and a list of expected keywords.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunKeywords,
}

var runListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs",
	RunE:  runRunList,
}

var (
	runDescription string
	runJSON        bool
)

func init() {
	runKeywordsCmd.Flags().StringVarP(&runDescription, "description", "d", "", "description of the run")
	runListCmd.Flags().BoolVar(&runJSON, "json", false, "output as JSON")

	runCmd.AddCommand(runKeywordsCmd)
	runCmd.AddCommand(runListCmd)
	rootCmd.AddCommand(runCmd)
}

func runRunKeywords(cmd *cobra.Command, args []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	overview, err := evaluationService.RunKeywords(cmd.Context(), args[0], runDescription)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	cmd.Print(overview.String())
	return nil
}

func runRunList(cmd *cobra.Command, _ []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	runs, err := evaluationService.Runs(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if runJSON {
		return printJSON(cmd, runs)
	}
	if len(runs) == 0 {
		cmd.Println("No runs.")
		return nil
	}
	for _, run := range runs {
		cmd.Printf("  %s  dataset=%s  ok=%d failed=%d  %s\n",
			run.ID, run.DatasetID, run.SuccessfulExampleCount, run.FailedExampleCount, run.Description)
	}
	return nil
}
