package driven

import (
	"context"
	"time"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

// SnapshotStats summarises the cached snapshot for status reporting.
type SnapshotStats struct {
	Labels     int
	Notes      int
	Embeddings int
	SyncedAt   time.Time
	// EmbeddingModel is the model that produced the cached label
	// embeddings; empty until embeddings are cached.
	EmbeddingModel string
}

// SnapshotStore caches the label catalog and note forest fetched from the
// graph source. Snapshots are read-only for the duration of one
// classification run and refreshed by sync, never mutated by the core.
type SnapshotStore interface {
	// SaveLabels replaces the cached label catalog. Cached embeddings for
	// labels no longer present are dropped.
	SaveLabels(ctx context.Context, labels []domain.Label) error

	// LoadLabels returns the cached catalog, embeddings included where
	// cached. Returns domain.ErrNoSnapshot when nothing has been synced.
	LoadLabels(ctx context.Context) ([]domain.Label, error)

	// SaveEmbeddings caches computed label embeddings together with the
	// producing model's identity.
	SaveEmbeddings(ctx context.Context, model string, embeddings map[string][]float32) error

	// EmbeddingModel returns the model identity recorded with the cached
	// embeddings, or empty when none are cached.
	EmbeddingModel(ctx context.Context) (string, error)

	// SaveNotes replaces the cached note snapshot for the sync window.
	SaveNotes(ctx context.Context, notes []domain.Note, syncedAt time.Time) error

	// LoadNotes returns the cached note snapshot.
	// Returns domain.ErrNoSnapshot when nothing has been synced.
	LoadNotes(ctx context.Context) ([]domain.Note, error)

	// Stats returns snapshot counts for status reporting.
	Stats(ctx context.Context) (SnapshotStats, error)

	// Close releases resources.
	Close() error
}
