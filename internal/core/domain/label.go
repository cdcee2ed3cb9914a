package domain

// Label represents a Tana supertag that can be attached to a note.
type Label struct {
	// ID is the unique node identifier of the supertag.
	ID string

	// Name is the human-readable tag name. Names are not required to be
	// unique; IDs are.
	Name string

	// Description is optional free text used to enrich the embedding.
	Description string

	// Embedding is the precomputed vector representation of the label.
	// Populated by the catalog, cached in the snapshot store, and
	// invalidated when the catalog refreshes.
	Embedding []float32

	// Excluded marks system or noise labels that must never be scored.
	Excluded bool
}

// EmbeddingText returns the text that is embedded for this label.
// The description, when present, disambiguates short tag names.
func (l Label) EmbeddingText() string {
	if l.Description == "" {
		return l.Name
	}
	return l.Name + ": " + l.Description
}

// ConfidenceBand buckets a similarity score for display.
type ConfidenceBand string

// Confidence bands.
const (
	ConfidenceHigh   ConfidenceBand = "High"
	ConfidenceMedium ConfidenceBand = "Medium"
	ConfidenceLow    ConfidenceBand = "Low"
)

// Confidence returns the display band for a score in [0,1].
func Confidence(score float64) ConfidenceBand {
	switch {
	case score >= 0.7:
		return ConfidenceHigh
	case score >= 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
