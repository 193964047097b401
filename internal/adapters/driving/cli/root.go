// Package cli implements the lexica command-line interface using cobra.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driving"
	"github.com/custodia-labs/lexica-cli/internal/logger"
)

// version is set at build time via -ldflags or by SetVersion.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
	ephemeral bool
)

// Services used by the commands. They are built by wire before any
// command runs, or injected directly by tests.
var (
	extractionService driving.ExtractionService
	discoveryService  driving.DiscoveryService
	credentialService driving.CredentialService
	settingsService   driving.SettingsService
	archiveService    driving.ArchiveService

	// appSettings is the configuration loaded at startup.
	appSettings = domain.DefaultAppSettings()

	// promptWatcher reloads prompts while the MCP server runs. Nil when
	// prompts are not file-backed.
	promptWatcher PromptWatcher

	appLogger = logger.NewNop()
)

// PromptWatcher watches prompt files for edits until ctx is done.
type PromptWatcher interface {
	Watch(ctx context.Context, ready chan<- struct{}) error
}

// wire builds the services for the current invocation. Tests replace it.
var wire = wireServices

var rootCmd = &cobra.Command{
	Use:   "lexica",
	Short: "Turn encyclopedia articles into structured, AI-enriched records",
	Long: `Lexica fetches Wikipedia articles and converts them into structured
extractions: tables, sections, infobox facts and cross-references, plus an
optional AI-written summary, classification, key facts, dates, locations and
related topics.

It can also suggest articles for a topic and serve all of this to AI
assistants over the Model Context Protocol.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return wire(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"configuration directory (default $LEXICA_HOME or ~/.lexica)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false,
		"keep settings, keys and history in memory for this run only")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases any resources opened while
// wiring services.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}
