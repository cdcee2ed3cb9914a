package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show snapshot and ledger state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	ctx := cmd.Context()

	stats, err := snapshotStore.Stats(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("reading snapshot: %w", err)
	case stats.SyncedAt.IsZero():
		cmd.Println("Snapshot: none (run 'tanatag sync')")
	default:
		cmd.Printf("Snapshot: %d labels, %d notes, synced %s\n",
			stats.Labels, stats.Notes, stats.SyncedAt.Format("2006-01-02 15:04"))
		if stats.EmbeddingModel != "" {
			cmd.Printf("Embeddings: %d cached (%s)\n", stats.Embeddings, stats.EmbeddingModel)
		} else {
			cmd.Println("Embeddings: none cached")
		}
	}

	counts, err := ledgerStore.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading ledger: %w", err)
	}
	cmd.Printf("Ledger: %d pending, %d approved, %d rejected, %d applied\n",
		counts[domain.StatusPending], counts[domain.StatusApproved],
		counts[domain.StatusRejected], counts[domain.StatusApplied])

	if sync, err := syncOrchestrator.Status(ctx); err == nil && sync.Running {
		cmd.Println("Sync: running")
	}
	return nil
}
