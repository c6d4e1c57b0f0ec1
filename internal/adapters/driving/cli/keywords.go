package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/tracing"
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/services"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords [text]",
	Short: "Extract keywords from text",
	Long: `Ask the configured control model for the keywords of a text.

Examples:
  ilayer keywords "I really like my computer"
  ilayer keywords "Ich mag meinen Computer" --language de --trace`,
	Args: cobra.MinimumNArgs(1),
	RunE: runKeywords,
}

var (
	keywordLanguage string
	keywordTrace    bool
)

func init() {
	keywordsCmd.Flags().StringVarP(&keywordLanguage, "language", "l", "en", "language of the text")
	keywordsCmd.Flags().BoolVar(&keywordTrace, "trace", false, "print the trace of the extraction")
	rootCmd.AddCommand(keywordsCmd)
}

func runKeywords(cmd *cobra.Command, args []string) error {
	if keywordService == nil {
		return errors.New("keyword service not configured")
	}

	ctx := cmd.Context()
	var tracer *tracing.InMemoryTracer
	if keywordTrace {
		tracer = tracing.NewInMemoryTracer()
		ctx = services.ContextWithTracer(ctx, tracer)
	}

	language := domain.Language(keywordLanguage)
	keywords, err := keywordService.Extract(ctx, domain.TextChunk(strings.Join(args, " ")), language)
	if tracer != nil {
		cmd.Println(traceTree(tracer.Roots()).String())
	}
	if errors.Is(err, domain.ErrLanguageNotSupported) {
		return fmt.Errorf("language %q is not supported (supported: %s)",
			language, joinLanguages(keywordService.SupportedLanguages()))
	}
	if err != nil {
		return fmt.Errorf("keyword extraction failed: %w", err)
	}

	if len(keywords) == 0 {
		cmd.Println("No keywords found.")
		return nil
	}
	for _, keyword := range keywords {
		cmd.Printf("  %s\n", keyword)
	}
	return nil
}

func joinLanguages(languages []domain.Language) string {
	names := make([]string, len(languages))
	for i, l := range languages {
		names[i] = l.String()
	}
	return strings.Join(names, ", ")
}
