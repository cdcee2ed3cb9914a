package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/storage/memory"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
)

// classifyFixture wires a full pipeline over in-memory stores: one day
// of notes, two labels with known vectors.
type classifyFixture struct {
	runner   *ClassifyRunner
	embedder *stubEmbedder
	snapshot *memory.SnapshotStore
	ledger   *memory.LedgerStore
	notifier *recordingNotifier
}

func newClassifyFixture(t *testing.T) *classifyFixture {
	t.Helper()

	embedder := newStubEmbedder("test-model")
	embedder.vectors["Travel"] = []float32{1, 0, 0}
	embedder.vectors["Recipe"] = []float32{0, 1, 0}

	snapshot := memory.NewSnapshotStore()
	ctx := context.Background()
	require.NoError(t, snapshot.SaveLabels(ctx, []domain.Label{
		{ID: "l1", Name: "Travel"},
		{ID: "l2", Name: "Recipe"},
	}))
	require.NoError(t, snapshot.SaveNotes(ctx, []domain.Note{
		{ID: "trip", Title: "Viaje a Europa", Breadcrumb: []string{"2026-08-28 - Friday"}},
		{ID: "done", Title: "Organise move", HasTag: true, Breadcrumb: []string{"2026-08-28 - Friday"}},
	}, time.Now()))

	trip := domain.Note{ID: "trip", Title: "Viaje a Europa", Breadcrumb: []string{"2026-08-28 - Friday"}}
	embedder.vectors[trip.ScoringText()] = []float32{0.9, 0.2, 0}

	cfg := &domain.Config{
		TopK:                 domain.DefaultTopK,
		MinScore:             domain.DefaultMinScore,
		StructuralContainers: domain.DefaultStructuralContainers,
	}
	catalog := NewCatalog(embedder, nil)
	ledgerStore := memory.NewLedgerStore()
	notifier := &recordingNotifier{}

	runner := NewClassifyRunner(
		cfg, snapshot, catalog,
		NewClassifier(embedder, catalog),
		NewHierarchyFilter(cfg.StructuralContainers),
		NewLedger(ledgerStore),
		notifier,
	)
	return &classifyFixture{
		runner:   runner,
		embedder: embedder,
		snapshot: snapshot,
		ledger:   ledgerStore,
		notifier: notifier,
	}
}

func TestClassify_RecordsPendingSuggestions(t *testing.T) {
	f := newClassifyFixture(t)
	ctx := context.Background()

	result, err := f.runner.Classify(ctx, driving.ClassifyOptions{})

	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Results, 1, "the tagged note is pruned")
	assert.Equal(t, "trip", result.Results[0].Note.ID)
	require.NotEmpty(t, result.Results[0].Suggestions)
	assert.Equal(t, "l1", result.Results[0].Suggestions[0].LabelID)

	pending, err := f.ledger.ListByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, len(result.Results[0].Suggestions))
}

func TestClassify_DryRunLeavesLedgerEmpty(t *testing.T) {
	f := newClassifyFixture(t)
	ctx := context.Background()

	result, err := f.runner.Classify(ctx, driving.ClassifyOptions{DryRun: true})

	require.NoError(t, err)
	require.Len(t, result.Results, 1)

	pending, err := f.ledger.ListByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestClassify_CachesFreshEmbeddings(t *testing.T) {
	f := newClassifyFixture(t)
	ctx := context.Background()

	_, err := f.runner.Classify(ctx, driving.ClassifyOptions{DryRun: true})
	require.NoError(t, err)

	model, err := f.snapshot.EmbeddingModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test-model", model)

	labels, err := f.snapshot.LoadLabels(ctx)
	require.NoError(t, err)
	for _, l := range labels {
		assert.NotEmpty(t, l.Embedding, "label %s embedding cached after the run", l.ID)
	}
}

func TestClassify_CountsCyclicSubtrees(t *testing.T) {
	f := newClassifyFixture(t)
	ctx := context.Background()

	notes, err := f.snapshot.LoadNotes(ctx)
	require.NoError(t, err)
	notes = append(notes,
		domain.Note{ID: "loop-a", Title: "Planning", ParentID: strptr("loop-b")},
		domain.Note{ID: "loop-b", Title: "Logistics", ParentID: strptr("loop-a")},
	)
	require.NoError(t, f.snapshot.SaveNotes(ctx, notes, time.Now()))

	result, err := f.runner.Classify(ctx, driving.ClassifyOptions{DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, 1, result.SkippedSubtrees)
	require.Len(t, result.Results, 1, "healthy notes still classified")
	assert.Equal(t, "trip", result.Results[0].Note.ID)
}

func TestClassify_Deterministic(t *testing.T) {
	f := newClassifyFixture(t)
	ctx := context.Background()

	first, err := f.runner.Classify(ctx, driving.ClassifyOptions{DryRun: true})
	require.NoError(t, err)
	second, err := f.runner.Classify(ctx, driving.ClassifyOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.SkippedSubtrees, second.SkippedSubtrees)
}

func TestClassify_NoSnapshot(t *testing.T) {
	embedder := newStubEmbedder("test-model")
	catalog := NewCatalog(embedder, nil)
	runner := NewClassifyRunner(
		&domain.Config{TopK: 3, MinScore: 0.25},
		memory.NewSnapshotStore(), catalog,
		NewClassifier(embedder, catalog),
		NewHierarchyFilter(nil),
		NewLedger(memory.NewLedgerStore()),
		nil,
	)

	_, err := runner.Classify(context.Background(), driving.ClassifyOptions{})
	assert.ErrorIs(t, err, domain.ErrNoSnapshot)
}

func TestClassifyAsync_DeliversResultAndNotifies(t *testing.T) {
	f := newClassifyFixture(t)

	ch, cancel, err := f.runner.ClassifyAsync(context.Background(), driving.ClassifyOptions{DryRun: true})
	require.NoError(t, err)
	defer cancel()

	select {
	case res := <-ch:
		require.NoError(t, res.Err)
		assert.Len(t, res.Result.Results, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for async result")
	}

	assert.Eventually(t, func() bool {
		f.notifier.mu.Lock()
		defer f.notifier.mu.Unlock()
		return len(f.notifier.runs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	f.notifier.mu.Lock()
	summary := f.notifier.runs[0]
	f.notifier.mu.Unlock()
	assert.Equal(t, 1, summary.Targets)
	assert.NotEmpty(t, summary.RunID)
}

// gatedEmbedder blocks batch embedding until released, holding a run
// open so overlap can be observed.
type gatedEmbedder struct {
	*stubEmbedder
	gate chan struct{}
}

func (e *gatedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	<-e.gate
	return e.stubEmbedder.EmbedBatch(ctx, texts)
}

func TestClassifyAsync_SingleFlight(t *testing.T) {
	embedder := &gatedEmbedder{stubEmbedder: newStubEmbedder("test-model"), gate: make(chan struct{})}

	snapshot := memory.NewSnapshotStore()
	ctx := context.Background()
	require.NoError(t, snapshot.SaveLabels(ctx, []domain.Label{{ID: "l1", Name: "Travel"}}))
	require.NoError(t, snapshot.SaveNotes(ctx, []domain.Note{
		{ID: "trip", Title: "Viaje a Europa", Breadcrumb: []string{"2026-08-28 - Friday"}},
	}, time.Now()))

	catalog := NewCatalog(embedder, nil)
	runner := NewClassifyRunner(
		&domain.Config{TopK: 3, MinScore: 0.25},
		snapshot, catalog,
		NewClassifier(embedder, catalog),
		NewHierarchyFilter(nil),
		NewLedger(memory.NewLedgerStore()),
		nil,
	)

	ch, cancel, err := runner.ClassifyAsync(ctx, driving.ClassifyOptions{DryRun: true})
	require.NoError(t, err)
	defer cancel()

	// The first run is parked in EmbedBatch; a second start must refuse.
	_, _, err = runner.ClassifyAsync(ctx, driving.ClassifyOptions{DryRun: true})
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	close(embedder.gate)
	select {
	case res := <-ch:
		require.NoError(t, res.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the first run")
	}

	// The slot frees once the run goroutine winds down.
	assert.Eventually(t, func() bool {
		ch2, cancel2, err := runner.ClassifyAsync(ctx, driving.ClassifyOptions{DryRun: true})
		if err != nil {
			return false
		}
		defer cancel2()
		<-ch2
		return true
	}, 5*time.Second, 10*time.Millisecond)
}
