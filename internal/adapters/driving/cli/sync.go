package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/dateparse"
)

var syncDays int

var syncCmd = &cobra.Command{
	Use:   "sync [range]",
	Short: "Synchronise labels and notes from the workspace",
	Long: `Fetches the supertag catalog and recently created untagged notes
into the local snapshot.

The optional range argument accepts natural expressions:

  tanatag sync                  # configured default window
  tanatag sync --days 14        # last 14 days
  tanatag sync "last week"
  tanatag sync yesterday
  tanatag sync "2026-08-01 2026-08-15"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().IntVar(&syncDays, "days", 0, "sync notes created in the last N days")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	window, err := resolveWindow(args)
	if err != nil {
		return err
	}

	cmd.Printf("Syncing notes from the last %d day(s)...\n", window.Days())
	if err := syncWithProgress(cmd, syncOrchestrator, window); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	cmd.Println("Sync complete.")
	return nil
}

// resolveWindow turns the --days flag or a date expression into a sync
// window, falling back to the configured default.
func resolveWindow(args []string) (driven.SyncWindow, error) {
	now := time.Now()

	if syncDays > 0 {
		r := dateparse.LastDays(syncDays, now)
		return driven.SyncWindow{From: r.From, To: r.To}, nil
	}
	if len(args) > 0 {
		r, err := dateparse.Parse(strings.TrimSpace(args[0]), now)
		if err != nil {
			return driven.SyncWindow{}, fmt.Errorf("invalid range %q: %w", args[0], err)
		}
		return driven.SyncWindow{From: r.From, To: r.To}, nil
	}

	r := dateparse.LastDays(appConfig.DaysBack, now)
	return driven.SyncWindow{From: r.From, To: r.To}, nil
}

// syncWithProgress runs the sync while polling its status for progress.
func syncWithProgress(cmd *cobra.Command, svc driving.SyncService, window driven.SyncWindow) error {
	ctx := cmd.Context()

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Sync(ctx, window)
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastNotes := -1
	for {
		select {
		case err := <-errCh:
			// Final counts are best effort.
			status, statusErr := svc.Status(context.Background())
			if statusErr == nil {
				cmd.Printf("\rFetched %d labels and %d notes.\n", status.Labels, status.Notes)
			}
			return err
		case <-ticker.C:
			status, statusErr := svc.Status(ctx)
			if statusErr == nil && status.Notes > lastNotes {
				cmd.Printf("\rFetching... %d notes", status.Notes)
				lastNotes = status.Notes
			}
		}
	}
}
