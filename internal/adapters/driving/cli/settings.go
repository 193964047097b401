package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the settings stored in config.toml.

Use 'lexica settings set <key> <value>' to change a single setting.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Changes a single setting. Durations are whole seconds for *_seconds keys
and milliseconds for *_ms keys.

Examples:
  lexica settings set extraction.summary_ratio 0.6
  lexica settings set llm.model claude-sonnet-4-20250514
  lexica settings set log.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	cmd.Printf("  Max tokens: %d\n", settings.LLM.MaxTokens)
	cmd.Printf("  Timeout: %s\n", settings.LLM.Timeout)
	cmd.Printf("  Retries: %d (delay %s)\n", settings.LLM.MaxRetries, settings.LLM.RetryDelay)
	cmd.Println()

	cmd.Println("[Extraction]")
	cmd.Printf("  AI enabled: %s\n", yesNo(settings.Extraction.AIEnabled))
	cmd.Printf("  Summary ratio: %.2f\n", settings.Extraction.SummaryRatio)
	cmd.Printf("  Request delay: %s\n", settings.Extraction.RequestDelay)
	cmd.Printf("  Max table rows: %d\n", settings.Extraction.MaxTableRows)
	cmd.Println()

	cmd.Println("[Source]")
	cmd.Printf("  API: %s\n", settings.Source.BaseURL)
	cmd.Printf("  User agent: %s\n", settings.Source.UserAgent)
	cmd.Printf("  Timeout: %s\n", settings.Source.Timeout)
	cmd.Println()

	cmd.Println("[Discovery]")
	cmd.Printf("  Batch size: %d\n", settings.Discovery.BatchSize)
	cmd.Printf("  Max tokens: %d\n", settings.Discovery.MaxTokens)
	cmd.Printf("  Validation: %d at a time, %s pause\n",
		settings.Discovery.ValidationBatchSize, formatDuration(settings.Discovery.ValidationPause))
	cmd.Println()

	cmd.Println("[Log]")
	cmd.Printf("  Level: %s\n", settings.LogLevel)

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
	if err := settingsService.Set(key, value); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return fmt.Errorf("invalid setting: %w", err)
		}
		return fmt.Errorf("failed to save setting: %w", err)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "no"
	}
	return d.String()
}
