package driving

import (
	"context"
	"time"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
)

// SyncStatus reports the progress of a running or idle sync.
type SyncStatus struct {
	Running bool
	Labels  int
	Notes   int
	Err     string
}

// SyncService refreshes the local snapshot from the graph source.
type SyncService interface {
	// Sync fetches the label catalog and untagged notes for the window
	// into the snapshot store.
	Sync(ctx context.Context, window driven.SyncWindow) error

	// Status returns the current sync progress.
	Status(ctx context.Context) (SyncStatus, error)
}

// ClassifyOptions tune one classification run. Zero values fall back to
// the configured defaults.
type ClassifyOptions struct {
	// TopK caps suggestions per target.
	TopK int

	// MinScore is the confidence floor in [0,1].
	MinScore float64

	// DryRun computes suggestions without recording ledger entries.
	DryRun bool
}

// RunResult is the outcome of one classification pass.
type RunResult struct {
	// RunID identifies this run.
	RunID string

	// Results holds ranked suggestions per taggable target, in filter
	// emission order.
	Results []domain.TargetSuggestions

	// SkippedSubtrees counts subtrees dropped for structural errors.
	SkippedSubtrees int

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time
}

// ClassifyService runs the classification pipeline over the snapshot.
type ClassifyService interface {
	// Classify runs hierarchy filter, scorer and ranker synchronously and
	// records Pending ledger entries (unless opts.DryRun).
	Classify(ctx context.Context, opts ClassifyOptions) (*RunResult, error)

	// ClassifyAsync starts a background classification run. The returned
	// channel receives exactly one result; the notifier signals completion
	// out of band. Cancel the run via the returned cancel function.
	ClassifyAsync(ctx context.Context, opts ClassifyOptions) (<-chan AsyncResult, context.CancelFunc, error)
}

// AsyncResult is delivered on the side channel of a background run.
type AsyncResult struct {
	Result *RunResult
	Err    error
}

// ReviewService orchestrates human review of pending assignments and
// application of approved ones.
type ReviewService interface {
	// StartSession creates a review session for the owner over the current
	// Pending entries. Fails with domain.ErrActiveSession when the owner
	// already has a live session.
	StartSession(ctx context.Context, owner string) (*domain.Session, error)

	// Decide records an approve or reject for the (note, label) pair on
	// behalf of the owner's session and advances the session cursor.
	Decide(ctx context.Context, owner string, key domain.AssignmentKey, approve bool) error

	// Skip advances the owner's session past the current target without
	// deciding; touched entries stay Pending.
	Skip(ctx context.Context, owner string) error

	// CancelSession removes the owner's session immediately. Pending
	// entries touched by the session remain Pending.
	CancelSession(ctx context.Context, owner string) error

	// Apply hands every Approved entry to the graph source in creation
	// order. Per-entry failures do not abort the batch; the report carries
	// every outcome and a *domain.PartialApplyError is returned when at
	// least one entry failed.
	Apply(ctx context.Context) (domain.ApplyReport, error)

	// PendingQueue returns the Pending entries grouped per target, in
	// creation order, for queued (non-interactive) review.
	PendingQueue(ctx context.Context) ([]domain.TargetSuggestions, error)
}
