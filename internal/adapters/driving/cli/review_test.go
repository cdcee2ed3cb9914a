package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

func TestReviewCmd_ListEmpty(t *testing.T) {
	swapServices(t, &mockSyncService{}, &mockClassifyService{}, &mockReviewService{})
	reviewList = true
	defer func() { reviewList = false }()

	out, err := execute(t, "review", "--list")

	assert.NoError(t, err)
	assert.Contains(t, out, "No pending suggestions")
}

func TestReviewCmd_ListQueue(t *testing.T) {
	review := &mockReviewService{
		queue: []domain.TargetSuggestions{
			{
				Note: domain.Note{ID: "n1", Title: "Viaje a Europa",
					Breadcrumb: []string{"Daily Notes", "Viaje a Europa"}},
				Suggestions: []domain.Suggestion{
					{NoteID: "n1", LabelID: "l1", LabelName: "Travel", Score: 0.82},
				},
			},
		},
	}
	swapServices(t, &mockSyncService{}, &mockClassifyService{}, review)
	defer func() { reviewList = false }()

	out, err := execute(t, "review", "--list")

	assert.NoError(t, err)
	assert.Contains(t, out, "Viaje a Europa")
	assert.Contains(t, out, "Travel")
	assert.Contains(t, out, "1 note(s) awaiting review.")
}

func TestReviewOwner_FallsBack(t *testing.T) {
	t.Setenv("USER", "")
	assert.Equal(t, "local", reviewOwner())

	t.Setenv("USER", "ana")
	assert.Equal(t, "ana", reviewOwner())
}
