package domain

// Suggestion is a proposed (note, label) pairing with a similarity score.
// Suggestions are produced fresh on every classification run and persist
// only as ledger assignments.
type Suggestion struct {
	// NoteID identifies the taggable target.
	NoteID string

	// LabelID identifies the suggested label.
	LabelID string

	// LabelName is carried for display; the ledger keys on IDs only.
	LabelName string

	// Score is the similarity score in [0,1].
	Score float64
}

// Confidence returns the display band for this suggestion's score.
func (s Suggestion) Confidence() ConfidenceBand {
	return Confidence(s.Score)
}

// TargetSuggestions groups the ranked suggestions for one taggable target.
type TargetSuggestions struct {
	Note        Note
	Suggestions []Suggestion
}
