// Package webhook delivers run and apply notifications to an HTTP
// endpoint as JSON payloads.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/logger"
)

// Ensure Notifier implements the interface.
var _ driven.Notifier = (*Notifier)(nil)

// DefaultTimeout is the webhook delivery timeout.
const DefaultTimeout = 10 * time.Second

// Notifier posts event payloads to a configured URL.
type Notifier struct {
	client *http.Client
	url    string
}

// NewNotifier creates a webhook notifier targeting url.
func NewNotifier(url string) *Notifier {
	return &Notifier{
		client: &http.Client{Timeout: DefaultTimeout},
		url:    url,
	}
}

// runCompleteEvent is the payload for a finished classification run.
type runCompleteEvent struct {
	Event       string `json:"event"`
	RunID       string `json:"run_id"`
	Targets     int    `json:"targets"`
	Suggestions int    `json:"suggestions"`
	Skipped     int    `json:"skipped"`
	Error       string `json:"error,omitempty"`
}

// applyResultEvent is the payload for an apply batch.
type applyResultEvent struct {
	Event    string             `json:"event"`
	Applied  int                `json:"applied"`
	Failed   int                `json:"failed"`
	Outcomes []applyOutcomeItem `json:"outcomes"`
}

type applyOutcomeItem struct {
	NoteID    string `json:"note_id"`
	LabelID   string `json:"label_id"`
	NoteTitle string `json:"note_title,omitempty"`
	LabelName string `json:"label_name,omitempty"`
	Applied   bool   `json:"applied"`
	Error     string `json:"error,omitempty"`
}

// RunComplete posts a run-complete event.
func (n *Notifier) RunComplete(ctx context.Context, summary driven.RunSummary) error {
	event := runCompleteEvent{
		Event:       "run_complete",
		RunID:       summary.RunID,
		Targets:     summary.Targets,
		Suggestions: summary.Suggestions,
		Skipped:     summary.Skipped,
	}
	if summary.Err != nil {
		event.Error = summary.Err.Error()
	}
	return n.post(ctx, event)
}

// ApplyResult posts an apply-result event.
func (n *Notifier) ApplyResult(ctx context.Context, report domain.ApplyReport) error {
	event := applyResultEvent{
		Event:   "apply_result",
		Applied: report.AppliedCount(),
		Failed:  report.FailedCount(),
	}
	for _, outcome := range report.Outcomes {
		item := applyOutcomeItem{
			NoteID:    outcome.Key.NoteID,
			LabelID:   outcome.Key.LabelID,
			NoteTitle: outcome.NoteTitle,
			LabelName: outcome.LabelName,
			Applied:   outcome.Applied,
		}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
		}
		event.Outcomes = append(event.Outcomes, item)
	}
	return n.post(ctx, event)
}

func (n *Notifier) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(raw))
	}
	logger.Debug("webhook: delivered %T", payload)
	return nil
}

// NoopNotifier discards all events. Used when no webhook is configured.
type NoopNotifier struct{}

var _ driven.Notifier = NoopNotifier{}

// RunComplete discards the event.
func (NoopNotifier) RunComplete(context.Context, driven.RunSummary) error { return nil }

// ApplyResult discards the event.
func (NoopNotifier) ApplyResult(context.Context, domain.ApplyReport) error { return nil }
