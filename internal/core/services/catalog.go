package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/logger"
)

// Catalog holds the label catalog with precomputed embeddings for one
// classification run. It is loaded from the snapshot, filled in via the
// embedding provider, and invalidated when the catalog refreshes.
type Catalog struct {
	embedder driven.EmbeddingService
	excluded map[string]struct{}

	mu     sync.RWMutex
	labels []domain.Label // sorted by ID for deterministic iteration
	byID   map[string]domain.Label
	model  string
}

// NewCatalog creates an empty catalog backed by the given embedding
// provider. Labels whose IDs appear in excludedIDs are never scored.
func NewCatalog(embedder driven.EmbeddingService, excludedIDs []string) *Catalog {
	ex := make(map[string]struct{}, len(excludedIDs))
	for _, id := range excludedIDs {
		ex[id] = struct{}{}
	}
	return &Catalog{
		embedder: embedder,
		excluded: ex,
		byID:     make(map[string]domain.Label),
	}
}

// Load installs the labels and ensures every scorable label has an
// embedding, computing missing ones in one batch. cachedModel is the model
// identity recorded with any cached embeddings; a mismatch with the
// configured provider is a fatal configuration error, never a silent
// degradation. Load returns the newly computed embeddings so the caller
// can cache them.
func (c *Catalog) Load(ctx context.Context, labels []domain.Label, cachedModel string) (map[string][]float32, error) {
	model := c.embedder.ModelName()
	if cachedModel != "" && cachedModel != model {
		return nil, fmt.Errorf("%w: cached label embeddings were produced by %q, configured model is %q",
			domain.ErrModelMismatch, cachedModel, model)
	}

	sorted := make([]domain.Label, len(labels))
	copy(sorted, labels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	// Mark configured exclusions on the way in.
	for i := range sorted {
		if _, ok := c.excluded[sorted[i].ID]; ok {
			sorted[i].Excluded = true
		}
	}

	var (
		missing    []int
		missingTxt []string
	)
	for i := range sorted {
		if sorted[i].Excluded || len(sorted[i].Embedding) > 0 {
			continue
		}
		missing = append(missing, i)
		missingTxt = append(missingTxt, sorted[i].EmbeddingText())
	}

	computed := make(map[string][]float32, len(missing))
	if len(missing) > 0 {
		logger.Info("Embedding %d labels with %s", len(missing), model)
		vectors, err := c.embedder.EmbedBatch(ctx, missingTxt)
		if err != nil {
			return nil, fmt.Errorf("embed labels: %w", err)
		}
		for j, i := range missing {
			sorted[i].Embedding = vectors[j]
			computed[sorted[i].ID] = vectors[j]
		}
	}

	byID := make(map[string]domain.Label, len(sorted))
	for _, l := range sorted {
		byID[l.ID] = l
	}

	c.mu.Lock()
	c.labels = sorted
	c.byID = byID
	c.model = model
	c.mu.Unlock()

	return computed, nil
}

// Scorable returns the labels eligible for scoring, sorted by ID.
// Excluded labels are never returned.
func (c *Catalog) Scorable() []domain.Label {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Label, 0, len(c.labels))
	for _, l := range c.labels {
		if !l.Excluded && len(l.Embedding) > 0 {
			out = append(out, l)
		}
	}
	return out
}

// Get returns a label by ID.
func (c *Catalog) Get(id string) (domain.Label, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.byID[id]
	return l, ok
}

// Len returns the number of labels in the catalog, exclusions included.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.labels)
}

// Model returns the embedding model the loaded catalog was computed with.
func (c *Catalog) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// Invalidate drops the loaded catalog. The next run reloads from the
// snapshot store.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.labels = nil
	c.byID = make(map[string]domain.Label)
	c.model = ""
	c.mu.Unlock()
}
