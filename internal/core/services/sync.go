package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncService = (*SyncOrchestrator)(nil)

// SyncOrchestrator refreshes the snapshot store from the graph source.
// Snapshots are read-only caches: the core never mutates them outside a
// sync, and a sync replaces them whole.
type SyncOrchestrator struct {
	graph    driven.GraphSource
	snapshot driven.SnapshotStore
	catalog  *Catalog

	mu     sync.RWMutex
	status driving.SyncStatus
}

// NewSyncOrchestrator creates a sync orchestrator. The catalog is
// invalidated after every successful sync so the next classification run
// picks up the fresh labels.
func NewSyncOrchestrator(
	graph driven.GraphSource,
	snapshot driven.SnapshotStore,
	catalog *Catalog,
) *SyncOrchestrator {
	return &SyncOrchestrator{graph: graph, snapshot: snapshot, catalog: catalog}
}

// Sync fetches the label catalog and untagged notes for the window into
// the snapshot store.
func (o *SyncOrchestrator) Sync(ctx context.Context, window driven.SyncWindow) error {
	o.setRunning(true, "")
	defer o.setRunning(false, "")

	logger.Section("Sync")
	logger.Info("Window: %s to %s (%d days)",
		window.From.Format("2006-01-02"), window.To.Format("2006-01-02"), window.Days())

	// 1. LABEL CATALOG
	labels, err := o.graph.FetchLabels(ctx)
	if err != nil {
		o.setError(err)
		return fmt.Errorf("fetch labels: %w", err)
	}
	if err := o.snapshot.SaveLabels(ctx, labels); err != nil {
		o.setError(err)
		return fmt.Errorf("save labels: %w", err)
	}
	o.setLabels(len(labels))
	logger.Info("Synced %d labels", len(labels))

	// 2. UNTAGGED NOTES
	notes, err := o.graph.FetchUntaggedNotes(ctx, window)
	if err != nil {
		o.setError(err)
		return fmt.Errorf("fetch notes: %w", err)
	}
	if err := o.snapshot.SaveNotes(ctx, notes, time.Now()); err != nil {
		o.setError(err)
		return fmt.Errorf("save notes: %w", err)
	}
	o.setNotes(len(notes))
	logger.Info("Synced %d untagged notes", len(notes))

	// 3. INVALIDATE the in-memory catalog; the snapshot changed beneath it.
	if o.catalog != nil {
		o.catalog.Invalidate()
	}

	return nil
}

// Status returns the current sync progress.
func (o *SyncOrchestrator) Status(_ context.Context) (driving.SyncStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status, nil
}

func (o *SyncOrchestrator) setRunning(running bool, errMsg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Running = running
	if running {
		o.status = driving.SyncStatus{Running: true}
	}
	if errMsg != "" {
		o.status.Err = errMsg
	}
}

func (o *SyncOrchestrator) setLabels(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Labels = n
}

func (o *SyncOrchestrator) setNotes(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Notes = n
}

func (o *SyncOrchestrator) setError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Err = err.Error()
}
