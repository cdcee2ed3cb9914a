package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Sync == nil {
		ports.Sync = &mockSyncService{}
	}
	if ports.Classify == nil {
		ports.Classify = &mockClassifyService{}
	}
	if ports.Review == nil {
		ports.Review = &mockReviewService{}
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestNewServerValidatesPorts(t *testing.T) {
	_, err := NewServer(&Ports{})
	assert.ErrorIs(t, err, ErrMissingSyncService)

	_, err = NewServer(&Ports{Sync: &mockSyncService{}})
	assert.ErrorIs(t, err, ErrMissingClassifyService)

	_, err = NewServer(&Ports{Sync: &mockSyncService{}, Classify: &mockClassifyService{}})
	assert.ErrorIs(t, err, ErrMissingReviewService)
}

func TestHandleSyncDefaultsWindow(t *testing.T) {
	sync := &mockSyncService{status: driving.SyncStatus{Labels: 12, Notes: 40}}
	server := newTestServer(t, &Ports{Sync: sync})

	_, output, err := server.handleSync(context.Background(), nil, SyncInput{})
	require.NoError(t, err)

	assert.Equal(t, 1, sync.calls)
	assert.Equal(t, 12, output.Labels)
	assert.Equal(t, 40, output.Notes)
	assert.Equal(t, domain.DefaultDaysBack, sync.lastWindow.Days())
}

func TestHandleClassifySync(t *testing.T) {
	classify := &mockClassifyService{
		result: &driving.RunResult{
			RunID: "run-1",
			Results: []domain.TargetSuggestions{
				{
					Note: domain.Note{ID: "n1", Title: "Viaje a Europa", Breadcrumb: []string{"2026-08-28 - Friday"}},
					Suggestions: []domain.Suggestion{
						{NoteID: "n1", LabelID: "t1", LabelName: "Travel", Score: 0.82},
					},
				},
			},
			SkippedSubtrees: 1,
		},
	}
	server := newTestServer(t, &Ports{Classify: classify})

	_, output, err := server.handleClassify(context.Background(), nil, ClassifyInput{TopK: 5})
	require.NoError(t, err)

	assert.Equal(t, "run-1", output.RunID)
	assert.Equal(t, 1, output.Skipped)
	require.Len(t, output.Targets, 1)
	require.Len(t, output.Targets[0].Suggestions, 1)
	assert.Equal(t, "Travel", output.Targets[0].Suggestions[0].LabelName)
	assert.Equal(t, "High", output.Targets[0].Suggestions[0].Confidence)
	assert.Equal(t, 5, classify.lastOpts.TopK)
}

func TestHandleClassifyAsyncStartsRun(t *testing.T) {
	classify := &mockClassifyService{result: &driving.RunResult{RunID: "run-2"}}
	server := newTestServer(t, &Ports{Classify: classify})

	_, output, err := server.handleClassify(context.Background(), nil, ClassifyInput{Async: true})
	require.NoError(t, err)

	assert.True(t, output.Started)
	assert.Empty(t, output.Targets)
	assert.Equal(t, 1, classify.asyncCalls)
}

func TestHandleClassifyAsyncRunInProgress(t *testing.T) {
	classify := &mockClassifyService{err: domain.ErrRunInProgress}
	server := newTestServer(t, &Ports{Classify: classify})

	_, _, err := server.handleClassify(context.Background(), nil, ClassifyInput{Async: true})
	assert.ErrorIs(t, err, domain.ErrRunInProgress)
}

func TestHandleApplyReportsPartialFailure(t *testing.T) {
	report := domain.ApplyReport{
		Outcomes: []domain.ApplyOutcome{
			{Key: domain.AssignmentKey{NoteID: "n1", LabelID: "t1"}, Applied: true},
			{Key: domain.AssignmentKey{NoteID: "n2", LabelID: "t2"}, Err: errors.New("node gone")},
		},
	}
	review := &mockReviewService{
		report:   report,
		applyErr: &domain.PartialApplyError{Report: report},
	}
	server := newTestServer(t, &Ports{Review: review})

	_, output, err := server.handleApply(context.Background(), nil, struct{}{})
	require.NoError(t, err)

	assert.Equal(t, 1, output.Applied)
	assert.Equal(t, 1, output.Failed)
	require.Len(t, output.Failures, 1)
	assert.Equal(t, "n2", output.Failures[0].NoteID)
	assert.Equal(t, "node gone", output.Failures[0].Error)
}

func TestHandleApplyPropagatesHardFailure(t *testing.T) {
	review := &mockReviewService{applyErr: domain.ErrSourceUnavailable}
	server := newTestServer(t, &Ports{Review: review})

	_, _, err := server.handleApply(context.Background(), nil, struct{}{})
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestHandleStatusAggregates(t *testing.T) {
	sync := &mockSyncService{status: driving.SyncStatus{Running: true}}
	server := newTestServer(t, &Ports{Sync: sync})

	_, output, err := server.handleStatus(context.Background(), nil, struct{}{})
	require.NoError(t, err)

	assert.True(t, output.SyncRunning)
	assert.Empty(t, output.SyncedAt)
	assert.NotNil(t, output.Assignments)
}
