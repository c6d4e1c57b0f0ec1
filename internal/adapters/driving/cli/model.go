package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

var completeCmd = &cobra.Command{
	Use:   "complete [prompt]",
	Short: "Complete a raw prompt",
	Long: `Send a raw prompt to the model API and print the completion.

Examples:
  ilayer complete "An apple a day"
  ilayer complete "Q: What is Go?\nA:" --max-tokens 32 --stop "\n"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runComplete,
}

var instructCmd = &cobra.Command{
	Use:   "instruct [instruction]",
	Short: "Run an instruction against a control model",
	Long: `Wrap an instruction (and optional input text) in the model's instruction
prompt format and print the completion.

Examples:
  ilayer instruct "Summarize the text." --input "Go is a programming language..."`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstruct,
}

var explainCmd = &cobra.Command{
	Use:   "explain [prompt] [target]",
	Short: "Explain which parts of a prompt drive a completion",
	Args:  cobra.ExactArgs(2),
	RunE:  runExplain,
}

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [text]",
	Short: "Show how a model tokenizes text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTokenize,
}

var (
	modelName     string
	maxTokens     int
	temperature   float64
	stopSequences []string
	instructInput string
	granularity   string
)

func init() {
	for _, cmd := range []*cobra.Command{completeCmd, instructCmd, explainCmd, tokenizeCmd} {
		cmd.Flags().StringVarP(&modelName, "model", "m", "", "model name (default from config)")
	}
	completeCmd.Flags().IntVar(&maxTokens, "max-tokens", 64, "maximum number of generated tokens")
	completeCmd.Flags().Float64VarP(&temperature, "temperature", "t", 0, "sampling temperature")
	completeCmd.Flags().StringSliceVar(&stopSequences, "stop", nil, "stop sequences")
	instructCmd.Flags().IntVar(&maxTokens, "max-tokens", 64, "maximum number of generated tokens")
	instructCmd.Flags().StringVarP(&instructInput, "input", "i", "", "input text the instruction refers to")
	explainCmd.Flags().StringVar(&granularity, "granularity", string(domain.GranularityWord),
		"prompt granularity (token, word, sentence, paragraph)")

	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(instructCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(tokenizeCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	if modelService == nil {
		return errors.New("model service not configured")
	}

	output, err := modelService.Complete(cmd.Context(), modelName, domain.CompleteInput{
		Prompt:        unescape(strings.Join(args, " ")),
		MaximumTokens: maxTokens,
		Temperature:   temperature,
		StopSequences: unescapeAll(stopSequences),
	})
	if err != nil {
		return fmt.Errorf("completion failed: %w", err)
	}

	cmd.Println(output.Completion())
	cmd.Println(mutedStyle.Render(fmt.Sprintf("%s, %d tokens", output.ModelVersion, output.GeneratedTokens())))
	return nil
}

func runInstruct(cmd *cobra.Command, args []string) error {
	if modelService == nil {
		return errors.New("model service not configured")
	}

	output, err := modelService.Instruct(cmd.Context(), modelName, driving.InstructRequest{
		Instruction:   strings.Join(args, " "),
		Input:         instructInput,
		MaximumTokens: maxTokens,
	})
	if err != nil {
		return fmt.Errorf("instruction failed: %w", err)
	}

	cmd.Println(strings.TrimSpace(output.Completion()))
	return nil
}

func runExplain(cmd *cobra.Command, args []string) error {
	if modelService == nil {
		return errors.New("model service not configured")
	}

	output, err := modelService.Explain(cmd.Context(), modelName, domain.ExplainInput{
		Prompt:            unescape(args[0]),
		Target:            args[1],
		PromptGranularity: domain.Granularity(granularity),
	})
	if err != nil {
		return fmt.Errorf("explanation failed: %w", err)
	}

	prompt := unescape(args[0])
	for _, explanation := range output.Explanations {
		cmd.Printf("Target: %q\n", explanation.Target)
		for _, item := range explanation.Items {
			if item.Type != "text" {
				continue
			}
			for _, score := range item.Scores {
				cmd.Printf("  %-30q %+.3f\n", span(prompt, score.Start, score.Length), score.Score)
			}
		}
	}
	return nil
}

func runTokenize(cmd *cobra.Command, args []string) error {
	if modelService == nil {
		return errors.New("model service not configured")
	}

	encoding, err := modelService.Tokenize(cmd.Context(), modelName, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	cmd.Printf("%d tokens\n", encoding.Len())
	for i, token := range encoding.Tokens {
		if i < len(encoding.IDs) {
			cmd.Printf("  %6d  %q\n", encoding.IDs[i], token)
			continue
		}
		cmd.Printf("  %6s  %q\n", "-", token)
	}
	return nil
}

// span returns the prompt slice an explanation score refers to, clamped to the prompt.
func span(prompt string, start, length int) string {
	if start < 0 || start >= len(prompt) {
		return ""
	}
	end := min(start+length, len(prompt))
	return prompt[start:end]
}

// unescape turns the literal \n and \t typed on a shell into control characters.
func unescape(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(s)
}

func unescapeAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = unescape(v)
	}
	return out
}
