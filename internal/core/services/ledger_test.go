package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/storage/memory"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

func newTestLedger() (*Ledger, *memory.LedgerStore) {
	store := memory.NewLedgerStore()
	return NewLedger(store), store
}

func suggestionFor(note domain.Note, labelID string, score float64) domain.Suggestion {
	return domain.Suggestion{NoteID: note.ID, LabelID: labelID, LabelName: "Travel", Score: score}
}

func TestLedger_RecordCreatesPending(t *testing.T) {
	ledger, store := newTestLedger()
	ctx := context.Background()
	note := domain.Note{ID: "n1", Title: "Viaje a Europa"}

	require.NoError(t, ledger.Record(ctx, note, suggestionFor(note, "l1", 0.82)))

	got, err := store.Get(ctx, domain.AssignmentKey{NoteID: "n1", LabelID: "l1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, "Viaje a Europa", got.NoteTitle)
	assert.InDelta(t, 0.82, got.Score, 1e-9)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestLedger_RerecordUpdatesScoreInPlace(t *testing.T) {
	ledger, store := newTestLedger()
	ctx := context.Background()
	note := domain.Note{ID: "n1", Title: "Viaje a Europa"}
	key := domain.AssignmentKey{NoteID: "n1", LabelID: "l1"}

	require.NoError(t, ledger.Record(ctx, note, suggestionFor(note, "l1", 0.60)))
	require.NoError(t, ledger.Record(ctx, note, suggestionFor(note, "l1", 0.75)))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got.Score, 1e-9, "last score wins")

	pending, err := store.ListByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "re-recording must not duplicate")
}

func TestLedger_RerecordLeavesDecidedEntriesAlone(t *testing.T) {
	ledger, store := newTestLedger()
	ctx := context.Background()
	note := domain.Note{ID: "n1", Title: "Viaje a Europa"}
	key := domain.AssignmentKey{NoteID: "n1", LabelID: "l1"}

	require.NoError(t, ledger.Record(ctx, note, suggestionFor(note, "l1", 0.60)))
	require.NoError(t, ledger.Approve(ctx, key))

	require.NoError(t, ledger.Record(ctx, note, suggestionFor(note, "l1", 0.90)))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.InDelta(t, 0.60, got.Score, 1e-9, "decided entries keep their reviewed score")
}

func TestLedger_Transitions(t *testing.T) {
	ctx := context.Background()
	note := domain.Note{ID: "n1", Title: "Viaje a Europa"}
	key := domain.AssignmentKey{NoteID: "n1", LabelID: "l1"}

	t.Run("approve then apply", func(t *testing.T) {
		ledger, store := newTestLedger()
		require.NoError(t, ledger.Record(ctx, note, suggestionFor(note, "l1", 0.8)))
		require.NoError(t, ledger.Approve(ctx, key))
		require.NoError(t, ledger.MarkApplied(ctx, key))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApplied, got.Status)
	})

	t.Run("pending cannot jump to applied", func(t *testing.T) {
		ledger, _ := newTestLedger()
		require.NoError(t, ledger.Record(ctx, note, suggestionFor(note, "l1", 0.8)))

		err := ledger.MarkApplied(ctx, key)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		ledger, _ := newTestLedger()
		require.NoError(t, ledger.Record(ctx, note, suggestionFor(note, "l1", 0.8)))
		require.NoError(t, ledger.Reject(ctx, key))

		assert.ErrorIs(t, ledger.Approve(ctx, key), domain.ErrIllegalTransition)
	})

	t.Run("re-applying is a no-op", func(t *testing.T) {
		ledger, _ := newTestLedger()
		require.NoError(t, ledger.Record(ctx, note, suggestionFor(note, "l1", 0.8)))
		require.NoError(t, ledger.Approve(ctx, key))
		require.NoError(t, ledger.MarkApplied(ctx, key))
		assert.NoError(t, ledger.MarkApplied(ctx, key))
	})

	t.Run("unknown key", func(t *testing.T) {
		ledger, _ := newTestLedger()
		assert.ErrorIs(t, ledger.Approve(ctx, key), domain.ErrNotFound)
	})
}
