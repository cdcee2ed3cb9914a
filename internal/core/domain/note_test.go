package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNote_ScoringText(t *testing.T) {
	n := Note{
		Title:      "Viaje a Europa",
		Content:    "Paris, Rome, Barcelona",
		Breadcrumb: []string{"2026-08-28 - Friday", "Daily Preparation"},
	}
	assert.Equal(t,
		"Viaje a Europa\nParis, Rome, Barcelona\n2026-08-28 - Friday > Daily Preparation",
		n.ScoringText())

	assert.Equal(t, "Just a title", Note{Title: "Just a title"}.ScoringText())
}

func TestNote_HasText(t *testing.T) {
	assert.True(t, Note{Title: "x"}.HasText())
	assert.True(t, Note{Content: "body"}.HasText())
	assert.False(t, Note{Title: "   "}.HasText())
	assert.False(t, Note{}.HasText())
}

func TestLabel_EmbeddingText(t *testing.T) {
	assert.Equal(t, "Travel", Label{Name: "Travel"}.EmbeddingText())
	assert.Equal(t, "Travel: trips and itineraries",
		Label{Name: "Travel", Description: "trips and itineraries"}.EmbeddingText())
}
