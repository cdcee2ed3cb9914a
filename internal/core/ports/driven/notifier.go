package driven

import (
	"context"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

// RunSummary describes a completed classification run.
type RunSummary struct {
	RunID       string
	Targets     int
	Suggestions int
	Skipped     int
	Err         error
}

// Notifier is the optional notification channel. The core emits
// "classification run complete" and "apply result" events; delivery and
// formatting are the collaborator's concern. Implementations must be safe
// to call from background goroutines.
type Notifier interface {
	// RunComplete signals that an asynchronous classification run finished.
	RunComplete(ctx context.Context, summary RunSummary) error

	// ApplyResult reports the per-entry outcomes of an apply batch.
	ApplyResult(ctx context.Context, report domain.ApplyReport) error
}
