package driven

import (
	"context"
	"time"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

// SyncWindow bounds the note search when syncing from the graph source.
type SyncWindow struct {
	// From is the inclusive start of the window.
	From time.Time

	// To is the inclusive end of the window.
	To time.Time
}

// Days returns the window length in whole days, minimum 1.
func (w SyncWindow) Days() int {
	d := int(w.To.Sub(w.From).Hours()/24) + 1
	if d < 1 {
		return 1
	}
	return d
}

// GraphSource supplies label and note snapshots from the knowledge graph
// and consumes approved assignments. Protocol specifics live in the
// adapter; transient failures are retried there and surfaced as
// domain.ErrSourceUnavailable when exhausted.
type GraphSource interface {
	// FetchLabels returns the full supertag catalog.
	FetchLabels(ctx context.Context) ([]domain.Label, error)

	// FetchUntaggedNotes returns notes without tags created inside the
	// window, with breadcrumb paths resolved.
	FetchUntaggedNotes(ctx context.Context, window SyncWindow) ([]domain.Note, error)

	// ApplyLabel attaches a label to a note. Reports per-item success or
	// failure; a failure leaves the graph unchanged for that note.
	ApplyLabel(ctx context.Context, noteID, labelID string) error

	// Ping validates the source is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
