package mcp

import (
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
)

// Ports aggregates the port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Sync refreshes the local snapshot.
	Sync driving.SyncService

	// Classify runs the classification pipeline.
	Classify driving.ClassifyService

	// Review manages the assignment ledger and applies approvals.
	Review driving.ReviewService

	// Snapshot reports cache statistics. Optional.
	Snapshot driven.SnapshotStore

	// Ledger reports assignment counts. Optional.
	Ledger driven.LedgerStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sync == nil {
		return ErrMissingSyncService
	}
	if p.Classify == nil {
		return ErrMissingClassifyService
	}
	if p.Review == nil {
		return ErrMissingReviewService
	}
	return nil
}
