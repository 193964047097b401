package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

var (
	previewJSON  bool
	estimateJSON bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <title-or-url>",
	Short: "Show a short description of an article",
	Long: `Fetches the introduction, categories and thumbnail of an article without
downloading the full page or using AI.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <title-or-url>",
	Short: "Estimate the AI cost of extracting an article",
	Long: `Fetches an article and estimates the tokens and cost of enriching it.
No AI call is made.`,
	Args: cobra.ExactArgs(1),
	RunE: runEstimate,
}

func init() {
	previewCmd.Flags().BoolVar(&previewJSON, "json", false, "output the preview as JSON")
	estimateCmd.Flags().BoolVar(&estimateJSON, "json", false, "output the estimate as JSON")
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(estimateCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	if extractionService == nil {
		return errors.New("extraction service not configured")
	}

	preview, err := extractionService.Preview(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	if previewJSON {
		return outputJSON(cmd, preview)
	}

	cmd.Println(preview.Title)
	cmd.Println()
	if extract := preview.ShortExtract(); extract != "" {
		cmd.Println(extract)
		cmd.Println()
	}
	if len(preview.Categories) > 0 {
		cmd.Printf("Categories: %s\n", strings.Join(preview.Categories, ", "))
	}
	cmd.Printf("URL: %s\n", preview.PageURL)
	if preview.ThumbnailURL != "" {
		cmd.Printf("Thumbnail: %s\n", preview.ThumbnailURL)
	}
	return nil
}

func runEstimate(cmd *cobra.Command, args []string) error {
	if extractionService == nil {
		return errors.New("extraction service not configured")
	}

	ref, err := domain.ParseArticleRef(args[0])
	if err != nil {
		return err
	}
	estimate, err := extractionService.Estimate(cmd.Context(), ref)
	if err != nil {
		return fmt.Errorf("estimate failed: %w", err)
	}

	if estimateJSON {
		return outputJSON(cmd, struct {
			Article  domain.ArticleRef    `json:"article"`
			Estimate domain.TokenEstimate `json:"estimate"`
			Cost     float64              `json:"estimated_cost_usd"`
		}{ref, estimate, estimate.Cost(domain.DefaultPricing)})
	}

	cmd.Printf("%s\n", ref.Title)
	cmd.Printf("  Input tokens:  ~%d\n", estimate.InputTokens)
	cmd.Printf("  Output tokens: ~%d\n", estimate.OutputTokens)
	cmd.Printf("  Cost:          ~$%.4f\n", estimate.Cost(domain.DefaultPricing))
	return nil
}
