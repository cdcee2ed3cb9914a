package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
)

// Ledger enforces the assignment state machine over a LedgerStore.
// All status changes go through transition checks; the store only ever
// sees legal states.
type Ledger struct {
	store driven.LedgerStore
	now   func() time.Time
}

// NewLedger creates a ledger service over the given store.
func NewLedger(store driven.LedgerStore) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Record writes a suggestion into the ledger as a Pending entry.
// Re-running classification over an already-Pending pair updates its
// score in place (last score wins) instead of duplicating. Entries that
// have already been decided or applied are left untouched.
func (l *Ledger) Record(ctx context.Context, note domain.Note, s domain.Suggestion) error {
	key := domain.AssignmentKey{NoteID: s.NoteID, LabelID: s.LabelID}

	existing, err := l.store.Get(ctx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		now := l.now()
		return l.store.Put(ctx, domain.Assignment{
			NoteID:    s.NoteID,
			LabelID:   s.LabelID,
			NoteTitle: note.Title,
			LabelName: s.LabelName,
			Score:     s.Score,
			Status:    domain.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	case err != nil:
		return fmt.Errorf("get assignment: %w", err)
	}

	if existing.Status != domain.StatusPending {
		return nil
	}
	return l.store.Update(ctx, key, func(a *domain.Assignment) error {
		a.Score = s.Score
		a.NoteTitle = note.Title
		a.LabelName = s.LabelName
		a.UpdatedAt = l.now()
		return nil
	})
}

// Approve moves a Pending entry to Approved.
func (l *Ledger) Approve(ctx context.Context, key domain.AssignmentKey) error {
	return l.transition(ctx, key, domain.StatusApproved)
}

// Reject moves a Pending entry to Rejected. Rejected is terminal.
func (l *Ledger) Reject(ctx context.Context, key domain.AssignmentKey) error {
	return l.transition(ctx, key, domain.StatusRejected)
}

// MarkApplied moves an Approved entry to Applied. Called only after the
// graph source confirmed the write. Re-applying an already-Applied entry
// is a no-op, not an error.
func (l *Ledger) MarkApplied(ctx context.Context, key domain.AssignmentKey) error {
	return l.store.Update(ctx, key, func(a *domain.Assignment) error {
		if a.Status == domain.StatusApplied {
			return nil
		}
		if !a.Status.CanTransition(domain.StatusApplied) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, a.Status, domain.StatusApplied)
		}
		a.Status = domain.StatusApplied
		a.UpdatedAt = l.now()
		return nil
	})
}

// transition applies a checked state change under the store's per-key lock.
func (l *Ledger) transition(ctx context.Context, key domain.AssignmentKey, next domain.AssignmentStatus) error {
	return l.store.Update(ctx, key, func(a *domain.Assignment) error {
		if !a.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, a.Status, next)
		}
		a.Status = next
		a.UpdatedAt = l.now()
		return nil
	})
}

// ListByStatus returns all entries in the given state, in creation order.
func (l *Ledger) ListByStatus(ctx context.Context, status domain.AssignmentStatus) ([]domain.Assignment, error) {
	return l.store.ListByStatus(ctx, status)
}

// Counts returns entry counts keyed by status.
func (l *Ledger) Counts(ctx context.Context) (map[domain.AssignmentStatus]int, error) {
	return l.store.CountByStatus(ctx)
}
