package driven

import (
	"context"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

// LedgerStore persists assignment entries across runs. The ledger is the
// single source of truth for what has or hasn't been committed back to
// the knowledge graph.
//
// Implementations must apply writes atomically per entry and must persist
// the whole ledger via atomic replace (write-new-then-swap), so a crash
// mid-write cannot corrupt previously committed entries.
type LedgerStore interface {
	// Get retrieves an entry by key. Returns domain.ErrNotFound when
	// absent.
	Get(ctx context.Context, key domain.AssignmentKey) (*domain.Assignment, error)

	// Put stores or replaces an entry.
	Put(ctx context.Context, a domain.Assignment) error

	// Update applies fn to the entry under the store's per-key write lock
	// and persists the result. fn receives a copy; returning an error
	// aborts the update without persisting.
	Update(ctx context.Context, key domain.AssignmentKey, fn func(*domain.Assignment) error) error

	// ListByStatus returns all entries in the given status, ordered by
	// creation time then key.
	ListByStatus(ctx context.Context, status domain.AssignmentStatus) ([]domain.Assignment, error)

	// CountByStatus returns entry counts keyed by status.
	CountByStatus(ctx context.Context) (map[domain.AssignmentStatus]int, error)

	// Close releases resources.
	Close() error
}
