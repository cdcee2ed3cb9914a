package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
)

// Classifier scores taggable targets against the label catalog and ranks
// the results. Deterministic: for a fixed embedding model and fixed
// inputs, two runs produce identical suggestion sets and scores.
type Classifier struct {
	embedder driven.EmbeddingService
	catalog  *Catalog
}

// NewClassifier creates a classifier over the given catalog. The embedder
// must be the same provider the catalog embeddings were computed with;
// the catalog enforces the model identity at load time.
func NewClassifier(embedder driven.EmbeddingService, catalog *Catalog) *Classifier {
	return &Classifier{embedder: embedder, catalog: catalog}
}

// Suggest returns at most topK suggestions for the note, each scoring at
// least minScore. Fewer than topK clearing the floor returns fewer; zero
// clearing it returns none, which is not an error. Ties are broken by
// label ID ascending.
func (c *Classifier) Suggest(
	ctx context.Context, note domain.Note, topK int, minScore float64,
) ([]domain.Suggestion, error) {
	labels := c.catalog.Scorable()
	if len(labels) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	text := note.ScoringText()
	if text == "" {
		return nil, nil
	}

	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed note %s: %w", note.ID, err)
	}

	suggestions := make([]domain.Suggestion, 0, len(labels))
	for _, label := range labels {
		if len(label.Embedding) != len(vec) {
			return nil, fmt.Errorf("%w: note vector has %d dimensions, label %s has %d",
				domain.ErrModelMismatch, len(vec), label.ID, len(label.Embedding))
		}
		score := clamp01(cosineSimilarity(vec, label.Embedding))
		if score < minScore {
			continue
		}
		suggestions = append(suggestions, domain.Suggestion{
			NoteID:    note.ID,
			LabelID:   label.ID,
			LabelName: label.Name,
			Score:     score,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].LabelID < suggestions[j].LabelID
	})

	if len(suggestions) > topK {
		suggestions = suggestions[:topK]
	}
	return suggestions, nil
}

// cosineSimilarity computes the cosine of the angle between a and b.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// clamp01 maps a cosine similarity onto the [0,1] score range. Negative
// similarities carry no ranking value for tag suggestion and floor at 0.
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
