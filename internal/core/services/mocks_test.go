package services

import (
	"context"
	"sync"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
)

// stubEmbedder returns canned vectors keyed by input text. Unknown
// texts get the fallback vector so tests control similarity exactly.
type stubEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	model    string
	embedErr error

	embedCalls int
	batchCalls int
}

func newStubEmbedder(model string) *stubEmbedder {
	return &stubEmbedder{
		vectors:  make(map[string][]float32),
		fallback: []float32{1, 0, 0},
		model:    model,
	}
}

func (e *stubEmbedder) vector(text string) []float32 {
	if v, ok := e.vectors[text]; ok {
		return v
	}
	return e.fallback
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.embedCalls++
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	return e.vector(text), nil
}

func (e *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batchCalls++
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int              { return len(e.fallback) }
func (e *stubEmbedder) ModelName() string            { return e.model }
func (e *stubEmbedder) Ping(_ context.Context) error { return nil }
func (e *stubEmbedder) Close() error                 { return nil }

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

// stubGraph implements driven.GraphSource with canned data and
// per-node apply failures.
type stubGraph struct {
	mu        sync.Mutex
	labels    []domain.Label
	notes     []domain.Note
	applyErrs map[string]error
	applied   []domain.AssignmentKey
}

func newStubGraph() *stubGraph {
	return &stubGraph{applyErrs: make(map[string]error)}
}

func (g *stubGraph) FetchLabels(_ context.Context) ([]domain.Label, error) {
	return g.labels, nil
}

func (g *stubGraph) FetchUntaggedNotes(_ context.Context, _ driven.SyncWindow) ([]domain.Note, error) {
	return g.notes, nil
}

func (g *stubGraph) ApplyLabel(_ context.Context, noteID, labelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.applyErrs[noteID]; err != nil {
		return err
	}
	g.applied = append(g.applied, domain.AssignmentKey{NoteID: noteID, LabelID: labelID})
	return nil
}

func (g *stubGraph) Ping(_ context.Context) error { return nil }
func (g *stubGraph) Close() error                 { return nil }

var _ driven.GraphSource = (*stubGraph)(nil)

// recordingNotifier captures notification payloads.
type recordingNotifier struct {
	mu      sync.Mutex
	runs    []driven.RunSummary
	applies []domain.ApplyReport
}

func (n *recordingNotifier) RunComplete(_ context.Context, summary driven.RunSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.runs = append(n.runs, summary)
	return nil
}

func (n *recordingNotifier) ApplyResult(_ context.Context, report domain.ApplyReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.applies = append(n.applies, report)
	return nil
}

var _ driven.Notifier = (*recordingNotifier)(nil)

func strptr(s string) *string { return &s }
