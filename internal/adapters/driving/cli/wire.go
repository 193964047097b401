package cli

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/lexica-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/lexica-cli/internal/adapters/driven/encyclopedia/wikipedia"
	"github.com/custodia-labs/lexica-cli/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/lexica-cli/internal/adapters/driven/secrets/env"
	"github.com/custodia-labs/lexica-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lexica-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/core/services"
	"github.com/custodia-labs/lexica-cli/internal/logger"
	"github.com/custodia-labs/lexica-cli/internal/normalisers/html"
)

// Encyclopedia request pacing shared by every command.
const (
	sourceRequestsPerSecond = 20
	sourceRequestBurst      = 20
)

// closers release resources opened by wireServices, in reverse order.
var closers []func() error

// stores groups the driven adapters a run is backed by.
type stores struct {
	config  driven.ConfigStore
	secrets driven.SecretStore
	archive driven.ExtractionStore
}

// wireServices builds every service from the configuration directory, or
// from memory when --ephemeral is set.
func wireServices(cmd *cobra.Command) error {
	closeServices()

	dir := configDir
	if dir == "" {
		var err error
		if dir, err = file.DefaultDir(); err != nil {
			return fmt.Errorf("resolve config directory: %w", err)
		}
	}

	st, err := openStores(dir)
	if err != nil {
		return err
	}

	settingsSvc := services.NewSettingsService(st.config)
	settings, err := settingsSvc.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:   settings.LogLevel,
		Verbose: verbose,
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	log.Debug("services wired",
		logger.String("config_dir", dir),
		logger.Bool("ephemeral", ephemeral),
	)

	var prompts driven.PromptStore
	promptWatcher = nil
	if !ephemeral {
		promptStore, err := file.NewPromptStore(filepath.Join(dir, "prompts"),
			log.With(logger.String("component", "prompts")))
		if err != nil {
			return fmt.Errorf("open prompts: %w", err)
		}
		prompts = promptStore
		promptWatcher = promptStore
	}

	wiki := wikipedia.NewClient(wikipedia.Config{
		BaseURL:   settings.Source.BaseURL,
		UserAgent: settings.Source.UserAgent,
		Timeout:   settings.Source.Timeout,
		Limiter:   rate.NewLimiter(sourceRequestsPerSecond, sourceRequestBurst),
		Logger:    log.With(logger.String("component", "wikipedia")),
	})
	host := articleHost(settings.Source.BaseURL)

	completion := services.NewCompletionService(
		anthropic.NewClient(anthropic.Config{BaseURL: settings.LLM.BaseURL}),
		st.secrets,
		settings.LLM,
		log.With(logger.String("component", "completion")),
	)

	enrichment := services.NewEnrichmentService(completion, prompts,
		log.With(logger.String("component", "enrichment")))

	extractionService = services.NewExtractionService(services.ExtractionConfig{
		Encyclopedia: wiki,
		Normaliser: html.New(html.Config{
			MaxTableRows: settings.Extraction.MaxTableRows,
			LinkBase:     "https://" + host,
			Logger:       log.With(logger.String("component", "parser")),
		}),
		Enricher:     enrichment,
		Archive:      st.archive,
		RequestDelay: settings.Extraction.RequestDelay,
		Logger:       log.With(logger.String("component", "extraction")),
	})
	discoveryService = services.NewDiscoveryService(services.DiscoveryConfig{
		Completer:    completion,
		Encyclopedia: wiki,
		Settings:     settings.Discovery,
		Host:         host,
		Prompts:      prompts,
		Logger:       log.With(logger.String("component", "discovery")),
	})
	credentialService = services.NewCredentialService(st.secrets, completion)
	settingsService = settingsSvc
	archiveService = services.NewArchiveService(st.archive)
	appSettings = *settings
	appLogger = log

	return nil
}

// openStores opens the persistent stores under dir, or in-memory ones.
// The environment key always backs up the stored one.
func openStores(dir string) (*stores, error) {
	envSecrets := env.NewStore(env.DefaultMapping)

	if ephemeral {
		return &stores{
			config:  memory.NewConfigStore(),
			secrets: env.NewChain(memory.NewSecretStore(nil), envSecrets),
			archive: memory.NewExtractionStore(),
		}, nil
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	secretStore, err := file.NewSecretStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open secrets: %w", err)
	}
	archive, err := sqlite.NewStore(filepath.Join(dir, "data"))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	closers = append(closers, archive.Close)

	return &stores{
		config:  configStore,
		secrets: env.NewChain(secretStore, envSecrets),
		archive: archive.ExtractionStore(),
	}, nil
}

// closeServices releases resources from the previous wiring.
//
//nolint:errcheck // best-effort cleanup on exit
func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
	appLogger.Sync()
}

// articleHost returns the host of the encyclopedia API endpoint.
func articleHost(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return domain.DefaultArticleHost
	}
	return u.Host
}
