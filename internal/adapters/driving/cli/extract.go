package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

var (
	extractNoAI  bool
	extractRatio float64
	extractJSON  bool
	extractSave  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <url-or-title>...",
	Short: "Extract structured data from articles",
	Long: `Fetches one or more Wikipedia articles and converts each into a structured
extraction. Arguments may be article URLs (desktop or mobile) or bare titles.

With an API key configured, the article is also summarised, classified and
mined for key facts, dates, locations and related topics. Without one, or with
--no-ai, the lead paragraph is used as the summary.

Examples:
  lexica extract "Ada Lovelace"
  lexica extract https://en.wikipedia.org/wiki/Rome --ratio 0.4 --save
  lexica extract Athens Sparta Corinth --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractNoAI, "no-ai", false, "skip AI enrichment")
	extractCmd.Flags().Float64Var(&extractRatio, "ratio", 0,
		"target summary length as a fraction of the article, 0.4 to 0.7 (default from settings)")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output extractions as JSON")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "archive the extractions in history")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractionService == nil {
		return errors.New("extraction service not configured")
	}

	refs, invalid := domain.ParseArticleRefs(strings.Join(args, "\n"))
	for _, err := range invalid {
		cmd.PrintErrf("Skipping: %v\n", err)
	}
	if len(refs) == 0 {
		return errors.New("no valid articles to extract")
	}

	opts, err := extractOptions(cmd)
	if err != nil {
		return err
	}

	progress := &progressPrinter{w: cmd.ErrOrStderr()}
	if len(refs) == 1 {
		extraction, err := extractionService.Extract(cmd.Context(), refs[0], opts, progress)
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}
		if extractJSON {
			return outputJSON(cmd, extraction)
		}
		printExtraction(cmd, extraction, opts.Save)
		return nil
	}

	result, err := extractionService.ExtractBatch(cmd.Context(), refs, opts, progress)
	if result == nil {
		return fmt.Errorf("batch extraction failed: %w", err)
	}
	if extractJSON {
		if jsonErr := outputJSON(cmd, result.Extractions); jsonErr != nil {
			return jsonErr
		}
	} else {
		for i, extraction := range result.Extractions {
			if i > 0 {
				cmd.Println()
			}
			printExtraction(cmd, extraction, opts.Save)
		}
	}
	for _, f := range result.Failures {
		cmd.PrintErrf("Failed: %s: %v\n", f.Ref.Title, f.Err)
	}
	if err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	if len(result.Extractions) == 0 {
		return errors.New("no articles extracted")
	}
	return nil
}

// extractOptions merges the flags with the configured defaults. AI is
// skipped with a note when no key is available.
func extractOptions(cmd *cobra.Command) (domain.ExtractOptions, error) {
	opts := domain.ExtractOptions{
		AIEnabled:    appSettings.Extraction.AIEnabled && !extractNoAI,
		SummaryRatio: appSettings.Extraction.SummaryRatio,
		Save:         extractSave,
	}
	if cmd.Flags().Changed("ratio") {
		if extractRatio < domain.MinSummaryRatio || extractRatio > domain.MaxSummaryRatio {
			return opts, fmt.Errorf("--ratio must be between %.1f and %.1f",
				domain.MinSummaryRatio, domain.MaxSummaryRatio)
		}
		opts.SummaryRatio = extractRatio
	}

	if opts.AIEnabled && credentialService != nil {
		hasKey, err := credentialService.HasAPIKey()
		if err != nil {
			return opts, fmt.Errorf("checking API key: %w", err)
		}
		if !hasKey {
			cmd.PrintErrln("No API key configured; extracting without AI. Run 'lexica auth set' to enable it.")
			opts.AIEnabled = false
		}
	}
	return opts, nil
}

func printExtraction(cmd *cobra.Command, e *domain.Extraction, saved bool) {
	cmd.Println(e.Article.DisplayTitle)
	cmd.Println(strings.Repeat("=", len([]rune(e.Article.DisplayTitle))))
	cmd.Printf("Source: %s\n", e.Metadata.SourceURL)
	cmd.Printf("Type: %s\n", e.Article.Type)
	cmd.Printf("Words: %d (summary %d)\n", e.Article.OriginalWordCount, e.Article.WordCount)
	if !e.Metadata.AIEnhanced {
		cmd.Println("AI: not used")
	}
	cmd.Println()

	if e.Article.Summary != "" {
		cmd.Println(e.Article.Summary)
		cmd.Println()
	}

	if len(e.Classification.KeyFacts) > 0 {
		cmd.Println("Key facts:")
		for _, f := range e.Classification.KeyFacts {
			cmd.Printf("  %s: %s\n", f.Key, f.Value)
		}
		cmd.Println()
	}
	if len(e.Temporal.Dates) > 0 {
		cmd.Println("Timeline:")
		for _, d := range e.Temporal.Dates {
			cmd.Printf("  %s  %s\n", d.Date, d.Event)
		}
		cmd.Println()
	}
	if len(e.Geographic.Locations) > 0 {
		cmd.Println("Locations:")
		for _, l := range e.Geographic.Locations {
			if l.ModernName != "" {
				cmd.Printf("  %s (%s, now %s)\n", l.Name, l.Type, l.ModernName)
			} else {
				cmd.Printf("  %s (%s)\n", l.Name, l.Type)
			}
		}
		cmd.Println()
	}
	if len(e.Classification.RelatedTopics) > 0 {
		cmd.Printf("Related: %s\n", strings.Join(e.Classification.RelatedTopics, ", "))
	}

	cmd.Printf("Structure: %d sections, %d tables, %d see-also links\n",
		len(e.Structured.Sections), len(e.Structured.Tables), len(e.References.SeeAlso))
	if usage := e.Metadata.TokensUsed; usage != nil {
		cmd.Printf("Tokens: %d in / %d out ($%.4f)\n",
			usage.InputTokens, usage.OutputTokens, usage.Cost(domain.DefaultPricing))
	}
	if saved {
		cmd.Printf("Saved: %s\n", e.ID)
	}
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// progressPrinter reports pipeline steps on stderr.
type progressPrinter struct {
	w io.Writer
}

func (p *progressPrinter) OnStep(step domain.ExtractionStep) {
	if step == domain.StepComplete {
		return
	}
	fmt.Fprintf(p.w, "  %s...\n", step.Description())
}

func (p *progressPrinter) OnArticle(index, total int, ref domain.ArticleRef) {
	fmt.Fprintf(p.w, "[%d/%d] %s\n", index+1, total, ref.Title)
}
