package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

var (
	discoverMore int
	discoverJSON bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover <query>",
	Short: "Suggest articles for a topic",
	Long: `Asks the AI for encyclopedia articles relevant to a topic and keeps only
those that exist. Use --more to load further batches.

Examples:
  lexica discover "Roman emperors"
  lexica discover "history of cryptography" --more 2 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&discoverMore, "more", 0, "number of additional batches to load")
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(discoverCmd)
}

// discoverOutput is the JSON form of a discovery session.
type discoverOutput struct {
	Query          string                `json:"query"`
	Results        []domain.SearchResult `json:"results"`
	EstimatedTotal int                   `json:"estimated_total"`
	FullyLoaded    bool                  `json:"fully_loaded"`
	Costs          []domain.CostEntry    `json:"costs"`
	Usage          domain.TokenUsage     `json:"usage"`
	CostUSD        float64               `json:"cost_usd"`
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if discoveryService == nil {
		return errors.New("discovery service not configured")
	}
	if discoverMore < 0 {
		return errors.New("--more must not be negative")
	}

	query := strings.Join(args, " ")
	ctx := cmd.Context()

	batch, err := discoveryService.Discover(ctx, query)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	session := domain.NewSearchSession(query, *batch, time.Now())

	hasMore := batch.HasMore
	for i := 0; i < discoverMore && hasMore && !session.IsFullyLoaded; i++ {
		next, err := discoveryService.ContinueDiscovery(ctx, query,
			session.LoadedTitles(), session.NextBatchNumber(appSettings.Discovery.BatchSize))
		if err != nil {
			return fmt.Errorf("loading more failed: %w", err)
		}
		session.ApplyContinuation(*next, time.Now())
		hasMore = next.HasMore
	}

	if discoverJSON {
		return outputJSON(cmd, discoverOutput{
			Query:          session.Query,
			Results:        session.Results,
			EstimatedTotal: session.EstimatedTotalCount,
			FullyLoaded:    session.IsFullyLoaded,
			Costs:          session.Costs.Entries(),
			Usage:          session.Costs.Total(),
			CostUSD:        session.Costs.Cost(domain.DefaultPricing),
		})
	}

	if len(session.Results) == 0 {
		cmd.Println("No articles found.")
		return nil
	}

	cmd.Printf("Found %d of about %d articles for %q:\n\n",
		session.LoadedCount, session.EstimatedTotalCount, session.Query)
	for i, r := range session.Results {
		cmd.Printf("  [%d] %s\n", i+1, r.Title)
		if r.Description != "" {
			cmd.Printf("      %s\n", r.Description)
		}
	}
	cmd.Println()

	total := session.Costs.Total()
	cmd.Printf("Tokens: %d in / %d out ($%.4f)\n",
		total.InputTokens, total.OutputTokens, session.Costs.Cost(domain.DefaultPricing))
	if !session.IsFullyLoaded && hasMore {
		cmd.Println("More results are available; rerun with --more to load them.")
	}
	return nil
}
