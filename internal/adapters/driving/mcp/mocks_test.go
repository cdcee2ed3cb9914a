package mcp

import (
	"context"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
)

// mockSyncService is a mock implementation of driving.SyncService.
type mockSyncService struct {
	status     driving.SyncStatus
	syncErr    error
	lastWindow driven.SyncWindow
	calls      int
}

func (m *mockSyncService) Sync(_ context.Context, window driven.SyncWindow) error {
	m.calls++
	m.lastWindow = window
	return m.syncErr
}

func (m *mockSyncService) Status(_ context.Context) (driving.SyncStatus, error) {
	return m.status, nil
}

// mockClassifyService is a mock implementation of driving.ClassifyService.
type mockClassifyService struct {
	result     *driving.RunResult
	err        error
	asyncCalls int
	lastOpts   driving.ClassifyOptions
}

func (m *mockClassifyService) Classify(_ context.Context, opts driving.ClassifyOptions) (*driving.RunResult, error) {
	m.lastOpts = opts
	return m.result, m.err
}

func (m *mockClassifyService) ClassifyAsync(_ context.Context, opts driving.ClassifyOptions) (<-chan driving.AsyncResult, context.CancelFunc, error) {
	m.asyncCalls++
	m.lastOpts = opts
	if m.err != nil {
		return nil, nil, m.err
	}
	ch := make(chan driving.AsyncResult, 1)
	ch <- driving.AsyncResult{Result: m.result}
	return ch, func() {}, nil
}

// mockReviewService is a mock implementation of driving.ReviewService.
type mockReviewService struct {
	session  *domain.Session
	report   domain.ApplyReport
	applyErr error
	queue    []domain.TargetSuggestions
	err      error
}

func (m *mockReviewService) StartSession(_ context.Context, _ string) (*domain.Session, error) {
	return m.session, m.err
}

func (m *mockReviewService) Decide(_ context.Context, _ string, _ domain.AssignmentKey, _ bool) error {
	return m.err
}

func (m *mockReviewService) Skip(_ context.Context, _ string) error {
	return m.err
}

func (m *mockReviewService) CancelSession(_ context.Context, _ string) error {
	return m.err
}

func (m *mockReviewService) Apply(_ context.Context) (domain.ApplyReport, error) {
	return m.report, m.applyErr
}

func (m *mockReviewService) PendingQueue(_ context.Context) ([]domain.TargetSuggestions, error) {
	return m.queue, m.err
}
