package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intelligence-layer/internal/core/services"
)

var evaluationCmd = &cobra.Command{
	Use:   "evaluation",
	Short: "Evaluate runs",
	Long:  `Grade stored runs against the expected outputs of their dataset.`,
}

var evaluationRunCmd = &cobra.Command{
	Use:   "run [run-id]...",
	Short: "Evaluate keyword runs",
	Long: `Compare the keywords of one run with the expected keywords of its dataset
and report precision, recall and F1 per example.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluationRun,
}

var evaluationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List evaluations",
	RunE:  runEvaluationList,
}

var evaluationShowCmd = &cobra.Command{
	Use:   "show [evaluation-id]",
	Short: "Show an evaluation and its aggregated scores",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvaluationShow,
}

var (
	evaluationDescription string
	evaluationJSON        bool
)

func init() {
	evaluationRunCmd.Flags().StringVarP(&evaluationDescription, "description", "d", "", "description of the evaluation")
	evaluationListCmd.Flags().BoolVar(&evaluationJSON, "json", false, "output as JSON")
	evaluationShowCmd.Flags().BoolVar(&evaluationJSON, "json", false, "output as JSON")

	evaluationCmd.AddCommand(evaluationRunCmd)
	evaluationCmd.AddCommand(evaluationListCmd)
	evaluationCmd.AddCommand(evaluationShowCmd)
	rootCmd.AddCommand(evaluationCmd)
}

func runEvaluationRun(cmd *cobra.Command, args []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	overview, err := evaluationService.EvaluateKeywords(cmd.Context(), evaluationDescription, args...)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	cmd.Print(overview.String())
	return nil
}

func runEvaluationList(cmd *cobra.Command, _ []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	evaluations, err := evaluationService.Evaluations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list evaluations: %w", err)
	}
	partials, err := evaluationService.PartialEvaluations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list pending evaluations: %w", err)
	}

	if evaluationJSON {
		return printJSON(cmd, map[string]any{"evaluations": evaluations, "pending": partials})
	}
	if len(evaluations) == 0 && len(partials) == 0 {
		cmd.Println("No evaluations.")
		return nil
	}

	for _, evaluation := range evaluations {
		cmd.Printf("  %s  runs=%v  ok=%d failed=%d  %s\n",
			evaluation.ID, evaluation.RunOverviewIDs,
			evaluation.SuccessfulEvaluationCount, evaluation.FailedEvaluationCount, evaluation.Description)
	}
	if len(partials) > 0 {
		cmd.Println()
		cmd.Println(titleStyle.Render("Pending human ratings"))
		for _, partial := range partials {
			cmd.Printf("  %s  runs=%v  submitted=%d  %s\n",
				partial.ID, partial.RunOverviewIDs, partial.SubmittedEvaluationCount, partial.Description)
		}
	}
	return nil
}

func runEvaluationShow(cmd *cobra.Command, args []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	overview, evaluations, err := evaluationService.Evaluation(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get evaluation: %w", err)
	}

	if evaluationJSON {
		return printJSON(cmd, map[string]any{"overview": overview, "evaluations": evaluations})
	}

	cmd.Print(overview.String())
	for _, evaluation := range evaluations {
		if evaluation.Failed() {
			cmd.Printf("  %s  %s\n", evaluation.ExampleID, errorStyle.Render(evaluation.Error))
		}
	}

	// Human ratings do not decode as keyword scores, so only report
	// aggregates when every result is one.
	aggregation, err := services.AggregateKeywordEvaluations(evaluations)
	if err != nil || aggregation.Count == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println(titleStyle.Render("Keyword scores"))
	cmd.Printf("  Examples:  %d\n", aggregation.Count)
	cmd.Printf("  Precision: %.3f\n", aggregation.MeanPrecision)
	cmd.Printf("  Recall:    %.3f\n", aggregation.MeanRecall)
	cmd.Printf("  F1:        %.3f\n", aggregation.MeanF1)
	return nil
}
