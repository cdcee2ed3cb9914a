package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/storage/memory"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

// swapStores installs in-memory snapshot and ledger backends.
func swapStores(t *testing.T) (*memory.SnapshotStore, *memory.LedgerStore) {
	t.Helper()
	oldSnapshot, oldLedger := snapshotStore, ledgerStore
	snapshot := memory.NewSnapshotStore()
	ledger := memory.NewLedgerStore()
	snapshotStore = snapshot
	ledgerStore = ledger
	t.Cleanup(func() {
		snapshotStore = oldSnapshot
		ledgerStore = oldLedger
	})
	return snapshot, ledger
}

func TestStatusCmd_NoSnapshot(t *testing.T) {
	swapServices(t, &mockSyncService{}, &mockClassifyService{}, &mockReviewService{})
	swapStores(t)

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Snapshot: none")
	assert.Contains(t, out, "0 pending, 0 approved, 0 rejected, 0 applied")
}

func TestStatusCmd_WithData(t *testing.T) {
	swapServices(t, &mockSyncService{}, &mockClassifyService{}, &mockReviewService{})
	snapshot, ledger := swapStores(t)
	ctx := context.Background()

	require.NoError(t, snapshot.SaveLabels(ctx, []domain.Label{{ID: "l1", Name: "Travel"}}))
	require.NoError(t, snapshot.SaveNotes(ctx,
		[]domain.Note{{ID: "n1", Title: "Viaje a Europa"}}, time.Now()))
	require.NoError(t, ledger.Put(ctx, domain.Assignment{
		NoteID: "n1", LabelID: "l1", Status: domain.StatusPending, CreatedAt: time.Now(),
	}))

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "1 labels, 1 notes")
	assert.Contains(t, out, "1 pending")
}
