// Package cli provides the cobra command surface for the tagger.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configfile "github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/config/file"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/embedding/ollama"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/embedding/openai"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/graph/tana"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/notify/webhook"
	storagefile "github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/storage/file"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/storage/sqlite"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/services"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/logger"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/watch"
)

// version is set by Execute.
var version = "dev"

// Persistent flags.
var (
	flagVerbose   bool
	flagConfigDir string
	flagDataDir   string
)

// Wired services, built lazily by ensureServices. Tests may inject
// fakes directly.
var (
	configStore      *configfile.ConfigStore
	appConfig        *domain.Config
	graphSource      driven.GraphSource
	embedder         driven.EmbeddingService
	snapshotStore    driven.SnapshotStore
	ledgerStore      driven.LedgerStore
	notifier         driven.Notifier
	catalog          *services.Catalog
	sessionManager   *services.SessionManager
	syncOrchestrator driving.SyncService
	classifyRunner   driving.ClassifyService
	reviewController driving.ReviewService
	snapshotWatcher  *watch.SnapshotWatcher
)

var rootCmd = &cobra.Command{
	Use:   "tanatag",
	Short: "Semantic supertag suggestions for Tana",
	Long: `tanatag suggests supertags for untagged Tana notes.

It syncs a local snapshot of your workspace, scores each taggable note
against the supertag catalog by embedding similarity, and keeps every
suggestion in a review ledger until you approve and apply it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default ~/.tanatag)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.tanatag)")
}

// Execute runs the root command.
func Execute(v string) error {
	version = v
	defer closeServices()
	return rootCmd.Execute()
}

// ensureConfigStore opens the settings store without requiring a valid
// configuration, so settings commands work on a fresh install.
func ensureConfigStore() error {
	if configStore != nil {
		return nil
	}
	store, err := configfile.NewConfigStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("opening settings: %w", err)
	}
	configStore = store
	return nil
}

// ensureServices wires the full adapter stack. Called by every command
// that touches the pipeline; settings and version stay config-only.
func ensureServices() error {
	if syncOrchestrator != nil {
		return nil
	}
	if err := ensureConfigStore(); err != nil {
		return err
	}

	cfg, err := configStore.BuildConfig()
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			return fmt.Errorf("%w (run 'tanatag settings' to configure)", err)
		}
		return err
	}
	appConfig = cfg

	graph, err := tana.NewClient(tana.Config{
		BaseURL:     cfg.GraphURL,
		Token:       cfg.GraphToken,
		WorkspaceID: cfg.WorkspaceID,
		Timeout:     cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}
	graphSource = graph

	embedder, err = buildEmbedder(cfg)
	if err != nil {
		return err
	}

	snapshot, err := sqlite.NewStore(flagDataDir)
	if err != nil {
		return fmt.Errorf("opening snapshot store: %w", err)
	}
	snapshotStore = snapshot

	ledgerBackend, err := storagefile.NewLedgerStore(flagDataDir)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	ledgerStore = ledgerBackend

	if cfg.WebhookURL != "" {
		notifier = webhook.NewNotifier(cfg.WebhookURL)
	} else {
		notifier = webhook.NoopNotifier{}
	}

	catalog = services.NewCatalog(embedder, cfg.ExcludedLabelIDs)
	ledger := services.NewLedger(ledgerStore)
	sessionManager = services.NewSessionManager(cfg.SessionTTL)
	filter := services.NewHierarchyFilter(cfg.StructuralContainers)
	classifier := services.NewClassifier(embedder, catalog)

	syncOrchestrator = services.NewSyncOrchestrator(graphSource, snapshotStore, catalog)
	classifyRunner = services.NewClassifyRunner(cfg, snapshotStore, catalog, classifier, filter, ledger, notifier)
	reviewController = services.NewReviewController(ledger, sessionManager, graphSource, notifier)
	return nil
}

// buildEmbedder constructs the configured embedding adapter.
func buildEmbedder(cfg *domain.Config) (driven.EmbeddingService, error) {
	switch cfg.EmbeddingProvider {
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL: configStore.GetString("embedding.base_url"),
			Model:   cfg.EmbeddingModel,
		}), nil
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:  resolveOpenAIKey(),
			BaseURL: configStore.GetString("embedding.base_url"),
			Model:   cfg.EmbeddingModel,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q",
			domain.ErrConfiguration, cfg.EmbeddingProvider)
	}
}

// resolveOpenAIKey prefers the environment over the settings file so
// the key never has to be written to disk.
func resolveOpenAIKey() string {
	if key := os.Getenv(configfile.EnvOpenAIAPIKey); key != "" {
		return key
	}
	return configStore.GetString("embedding.api_key")
}

// closeServices releases whatever ensureServices opened.
func closeServices() {
	if snapshotWatcher != nil {
		snapshotWatcher.Close() //nolint:errcheck
	}
	if sessionManager != nil {
		sessionManager.StopSweeper()
	}
	if graphSource != nil {
		graphSource.Close() //nolint:errcheck
	}
	if embedder != nil {
		embedder.Close() //nolint:errcheck
	}
	if snapshotStore != nil {
		snapshotStore.Close() //nolint:errcheck
	}
	if ledgerStore != nil {
		ledgerStore.Close() //nolint:errcheck
	}
}
