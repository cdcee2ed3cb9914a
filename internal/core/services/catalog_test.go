package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

func TestCatalog_LoadComputesMissingEmbeddings(t *testing.T) {
	embedder := newStubEmbedder("test-model")
	embedder.vectors["Travel"] = []float32{0, 1, 0}
	embedder.vectors["Recipe: cooking instructions"] = []float32{0, 0, 1}

	c := NewCatalog(embedder, nil)
	computed, err := c.Load(context.Background(), []domain.Label{
		{ID: "l2", Name: "Recipe", Description: "cooking instructions"},
		{ID: "l1", Name: "Travel"},
		{ID: "l3", Name: "Cached", Embedding: []float32{1, 1, 1}},
	}, "")

	require.NoError(t, err)
	assert.Equal(t, 1, embedder.batchCalls, "missing embeddings are one batch call")
	assert.Len(t, computed, 2)
	assert.Equal(t, []float32{0, 1, 0}, computed["l1"])
	assert.Equal(t, []float32{0, 0, 1}, computed["l2"])
	assert.NotContains(t, computed, "l3", "cached embeddings are not recomputed")

	scorable := c.Scorable()
	require.Len(t, scorable, 3)
	assert.Equal(t, "l1", scorable[0].ID, "scorable labels sorted by ID")
	assert.Equal(t, "test-model", c.Model())
}

func TestCatalog_ExcludedLabelsNeverScored(t *testing.T) {
	embedder := newStubEmbedder("test-model")
	c := NewCatalog(embedder, []string{"sys"})

	_, err := c.Load(context.Background(), []domain.Label{
		{ID: "sys", Name: "SYS_A01"},
		{ID: "l1", Name: "Travel"},
	}, "")

	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	scorable := c.Scorable()
	require.Len(t, scorable, 1)
	assert.Equal(t, "l1", scorable[0].ID)

	sys, ok := c.Get("sys")
	require.True(t, ok)
	assert.True(t, sys.Excluded)
	assert.Empty(t, sys.Embedding, "excluded labels are never embedded")
}

func TestCatalog_ModelMismatchIsFatal(t *testing.T) {
	c := NewCatalog(newStubEmbedder("new-model"), nil)

	_, err := c.Load(context.Background(), []domain.Label{{ID: "l1", Name: "Travel"}}, "old-model")

	assert.ErrorIs(t, err, domain.ErrModelMismatch)
}

func TestCatalog_Invalidate(t *testing.T) {
	c := NewCatalog(newStubEmbedder("test-model"), nil)
	_, err := c.Load(context.Background(), []domain.Label{{ID: "l1", Name: "Travel"}}, "")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	c.Invalidate()

	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Model())
	_, ok := c.Get("l1")
	assert.False(t, ok)
}
