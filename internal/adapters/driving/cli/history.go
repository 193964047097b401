package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived extractions",
	Long:  `List, show and delete extractions saved with 'lexica extract --save'.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived extractions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an archived extraction",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived extraction",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries (0 for all)")
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyShowCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if archiveService == nil {
		return errors.New("archive service not configured")
	}

	summaries, err := archiveService.List(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if historyJSON {
		return outputJSON(cmd, summaries)
	}
	if len(summaries) == 0 {
		cmd.Println("No saved extractions.")
		return nil
	}

	for _, s := range summaries {
		ai := ""
		if s.AIEnhanced {
			ai = " [AI]"
		}
		cmd.Printf("%s  %s  %s (%s)%s\n",
			s.ID, s.ExtractedAt.Local().Format("2006-01-02 15:04"), s.Title, s.Type, ai)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if archiveService == nil {
		return errors.New("archive service not configured")
	}

	extraction, err := archiveService.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no saved extraction with ID %s", args[0])
		}
		return fmt.Errorf("failed to load extraction: %w", err)
	}

	if historyJSON {
		return outputJSON(cmd, extraction)
	}
	printExtraction(cmd, extraction, false)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	if archiveService == nil {
		return errors.New("archive service not configured")
	}

	if err := archiveService.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no saved extraction with ID %s", args[0])
		}
		return fmt.Errorf("failed to delete extraction: %w", err)
	}
	cmd.Printf("Deleted %s.\n", args[0])
	return nil
}
