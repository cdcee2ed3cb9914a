package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
)

// mockSyncService implements driving.SyncService for testing.
type mockSyncService struct {
	lastWindow driven.SyncWindow
	syncErr    error
	status     driving.SyncStatus
}

func (m *mockSyncService) Sync(_ context.Context, window driven.SyncWindow) error {
	m.lastWindow = window
	return m.syncErr
}

func (m *mockSyncService) Status(_ context.Context) (driving.SyncStatus, error) {
	return m.status, nil
}

// mockClassifyService implements driving.ClassifyService for testing.
type mockClassifyService struct {
	lastOpts driving.ClassifyOptions
	result   *driving.RunResult
	err      error
}

func (m *mockClassifyService) Classify(_ context.Context, opts driving.ClassifyOptions) (*driving.RunResult, error) {
	m.lastOpts = opts
	return m.result, m.err
}

func (m *mockClassifyService) ClassifyAsync(_ context.Context, _ driving.ClassifyOptions) (<-chan driving.AsyncResult, context.CancelFunc, error) {
	ch := make(chan driving.AsyncResult, 1)
	ch <- driving.AsyncResult{Result: m.result, Err: m.err}
	return ch, func() {}, nil
}

// mockReviewService implements driving.ReviewService for testing.
type mockReviewService struct {
	queue    []domain.TargetSuggestions
	report   domain.ApplyReport
	applyErr error
}

func (m *mockReviewService) StartSession(_ context.Context, owner string) (*domain.Session, error) {
	return &domain.Session{Owner: owner}, nil
}

func (m *mockReviewService) Decide(_ context.Context, _ string, _ domain.AssignmentKey, _ bool) error {
	return nil
}

func (m *mockReviewService) Skip(_ context.Context, _ string) error { return nil }

func (m *mockReviewService) CancelSession(_ context.Context, _ string) error { return nil }

func (m *mockReviewService) Apply(_ context.Context) (domain.ApplyReport, error) {
	return m.report, m.applyErr
}

func (m *mockReviewService) PendingQueue(_ context.Context) ([]domain.TargetSuggestions, error) {
	return m.queue, nil
}

// swapServices installs mocks so ensureServices becomes a no-op, and
// restores the previous wiring on cleanup.
func swapServices(t *testing.T, sync driving.SyncService, classify driving.ClassifyService, review driving.ReviewService) {
	t.Helper()

	oldSync, oldClassify, oldReview := syncOrchestrator, classifyRunner, reviewController
	oldConfig := appConfig

	syncOrchestrator = sync
	classifyRunner = classify
	reviewController = review
	appConfig = &domain.Config{
		WorkspaceID:       "W1",
		GraphURL:          "http://localhost:7360",
		EmbeddingProvider: "ollama",
		EmbeddingModel:    "nomic-embed-text",
		TopK:              domain.DefaultTopK,
		MinScore:          domain.DefaultMinScore,
		DaysBack:          domain.DefaultDaysBack,
		SessionTTL:        30 * time.Minute,
	}

	t.Cleanup(func() {
		syncOrchestrator = oldSync
		classifyRunner = oldClassify
		reviewController = oldReview
		appConfig = oldConfig
	})
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}
