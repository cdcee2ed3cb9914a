package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

// mockReviewService is a scripted review service for driving the model.
type mockReviewService struct {
	session   *domain.Session
	startErr  error
	decideErr error
	decisions []struct {
		key     domain.AssignmentKey
		approve bool
	}
	skips     int
	cancelled bool
}

func (m *mockReviewService) StartSession(_ context.Context, _ string) (*domain.Session, error) {
	return m.session, m.startErr
}

func (m *mockReviewService) Decide(_ context.Context, _ string, key domain.AssignmentKey, approve bool) error {
	if m.decideErr != nil {
		return m.decideErr
	}
	m.decisions = append(m.decisions, struct {
		key     domain.AssignmentKey
		approve bool
	}{key, approve})
	return nil
}

func (m *mockReviewService) Skip(_ context.Context, _ string) error {
	m.skips++
	return nil
}

func (m *mockReviewService) CancelSession(_ context.Context, _ string) error {
	m.cancelled = true
	return nil
}

func (m *mockReviewService) Apply(_ context.Context) (domain.ApplyReport, error) {
	return domain.ApplyReport{}, nil
}

func (m *mockReviewService) PendingQueue(_ context.Context) ([]domain.TargetSuggestions, error) {
	return nil, nil
}

func twoTargetSession() *domain.Session {
	return &domain.Session{
		ID:    "s1",
		Owner: "local",
		State: domain.SessionReviewing,
		Queue: []domain.TargetSuggestions{
			{
				Note: domain.Note{ID: "n1", Title: "Viaje a Europa"},
				Suggestions: []domain.Suggestion{
					{NoteID: "n1", LabelID: "t1", LabelName: "Travel", Score: 0.82},
					{NoteID: "n1", LabelID: "t2", LabelName: "Planning", Score: 0.51},
				},
			},
			{
				Note: domain.Note{ID: "n2", Title: "Receta de paella"},
				Suggestions: []domain.Suggestion{
					{NoteID: "n2", LabelID: "t3", LabelName: "Recipe", Score: 0.77},
				},
			},
		},
	}
}

// startApp builds the app and feeds it the session-started message.
func startApp(t *testing.T, review *mockReviewService) *App {
	t.Helper()
	app, err := NewApp(review, "local")
	require.NoError(t, err)

	model, _ := app.Update(sessionStartedMsg{session: review.session, err: review.startErr})
	return model.(*App)
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestApproveRecordsDecisionAndAdvances(t *testing.T) {
	review := &mockReviewService{session: twoTargetSession()}
	app := startApp(t, review)

	model, cmd := app.Update(keyMsg("a"))
	app = model.(*App)
	require.NotNil(t, cmd)

	model, _ = app.Update(cmd())
	app = model.(*App)

	require.Len(t, review.decisions, 1)
	assert.Equal(t, domain.AssignmentKey{NoteID: "n1", LabelID: "t1"}, review.decisions[0].key)
	assert.True(t, review.decisions[0].approve)
	assert.Equal(t, 1, app.Position())

	approved, _, _ := app.Counts()
	assert.Equal(t, 1, approved)
}

func TestCursorSelectsSuggestion(t *testing.T) {
	review := &mockReviewService{session: twoTargetSession()}
	app := startApp(t, review)

	model, _ := app.Update(keyMsg("j"))
	app = model.(*App)
	model, cmd := app.Update(keyMsg("r"))
	app = model.(*App)
	require.NotNil(t, cmd)
	_, _ = app.Update(cmd())

	require.Len(t, review.decisions, 1)
	assert.Equal(t, "t2", review.decisions[0].key.LabelID)
	assert.False(t, review.decisions[0].approve)
}

func TestSkipLeavesEntriesUndecided(t *testing.T) {
	review := &mockReviewService{session: twoTargetSession()}
	app := startApp(t, review)

	model, cmd := app.Update(keyMsg("s"))
	app = model.(*App)
	require.NotNil(t, cmd)
	model, _ = app.Update(cmd())
	app = model.(*App)

	assert.Equal(t, 1, review.skips)
	assert.Empty(t, review.decisions)
	assert.Equal(t, 1, app.Position())
}

func TestQueueExhaustionFinishesReview(t *testing.T) {
	review := &mockReviewService{session: twoTargetSession()}
	app := startApp(t, review)

	for range 2 {
		model, cmd := app.Update(keyMsg("a"))
		app = model.(*App)
		require.NotNil(t, cmd)
		model, _ = app.Update(cmd())
		app = model.(*App)
	}

	assert.True(t, app.Done())
	assert.Contains(t, app.View(), "Review complete")
}

func TestQuitCancelsSession(t *testing.T) {
	review := &mockReviewService{session: twoTargetSession()}
	app := startApp(t, review)

	_, cmd := app.Update(keyMsg("q"))
	require.NotNil(t, cmd)

	msg := cmd()
	assert.True(t, review.cancelled)
	assert.IsType(t, tea.QuitMsg{}, msg)
}

func TestEmptyQueueIsImmediatelyDone(t *testing.T) {
	review := &mockReviewService{session: &domain.Session{ID: "s1", Owner: "local"}}
	app := startApp(t, review)

	assert.True(t, app.Done())
}

func TestStartFailureSurfacesError(t *testing.T) {
	review := &mockReviewService{startErr: domain.ErrActiveSession}
	app, err := NewApp(review, "local")
	require.NoError(t, err)

	model, _ := app.Update(sessionStartedMsg{err: domain.ErrActiveSession})
	app = model.(*App)

	assert.True(t, app.Done())
	assert.ErrorIs(t, app.Err(), domain.ErrActiveSession)
}

func TestDecideErrorKeepsPosition(t *testing.T) {
	review := &mockReviewService{session: twoTargetSession(), decideErr: domain.ErrNoSession}
	app := startApp(t, review)

	model, cmd := app.Update(keyMsg("a"))
	app = model.(*App)
	require.NotNil(t, cmd)
	model, _ = app.Update(cmd())
	app = model.(*App)

	assert.Equal(t, 0, app.Position())
	assert.ErrorIs(t, app.Err(), domain.ErrNoSession)
}
