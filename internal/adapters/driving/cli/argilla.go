package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var argillaCmd = &cobra.Command{
	Use:   "argilla",
	Short: "Collect human ratings in Argilla",
	Long: `Submit run outputs to Argilla for human rating and turn the collected
ratings into evaluations. Requires argilla.url and argilla.api_key.`,
}

var argillaSubmitCmd = &cobra.Command{
	Use:   "submit [run-id]...",
	Short: "Submit keyword runs for human rating",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runArgillaSubmit,
}

var argillaRetrieveCmd = &cobra.Command{
	Use:   "retrieve [partial-evaluation-id]",
	Short: "Collect submitted ratings into an evaluation",
	Long: `Collect the ratings submitted so far into an evaluation. Records without a
rating are left out. Retrieve again once more ratings have arrived.`,
	Args: cobra.ExactArgs(1),
	RunE: runArgillaRetrieve,
}

var argillaSplitCmd = &cobra.Command{
	Use:   "split [partial-evaluation-id] [n]",
	Short: "Split the rating records into n groups of annotators",
	Args:  cobra.ExactArgs(2),
	RunE:  runArgillaSplit,
}

var argillaDescription string

func init() {
	argillaSubmitCmd.Flags().StringVarP(&argillaDescription, "description", "d", "", "description of the evaluation")

	argillaCmd.AddCommand(argillaSubmitCmd)
	argillaCmd.AddCommand(argillaRetrieveCmd)
	argillaCmd.AddCommand(argillaSplitCmd)
	rootCmd.AddCommand(argillaCmd)
}

func runArgillaSubmit(cmd *cobra.Command, args []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	partial, err := evaluationService.SubmitKeywordRatings(cmd.Context(), argillaDescription, args...)
	if err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}

	cmd.Printf("Submitted %d records to Argilla dataset %s\n", partial.SubmittedEvaluationCount, partial.ArgillaDatasetID)
	cmd.Printf("Partial evaluation ID: %s\n", partial.ID)
	return nil
}

func runArgillaRetrieve(cmd *cobra.Command, args []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	overview, err := evaluationService.RetrieveKeywordRatings(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	cmd.Print(overview.String())
	return nil
}

func runArgillaSplit(cmd *cobra.Command, args []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid number of splits %q", args[1])
	}
	if err := evaluationService.SplitRatingDataset(cmd.Context(), args[0], n); err != nil {
		return fmt.Errorf("split failed: %w", err)
	}

	cmd.Printf("Split records of %s into %d groups\n", args[0], n)
	return nil
}
