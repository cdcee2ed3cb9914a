package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
)

// SyncInput is the input schema for the sync tool.
type SyncInput struct {
	Days int `json:"days,omitempty" jsonschema:"number of days to look back for untagged notes (default 7)"`
}

// SyncOutput is the output schema for the sync tool.
type SyncOutput struct {
	Labels int `json:"labels"`
	Notes  int `json:"notes"`
}

// ClassifyInput is the input schema for the classify tool.
type ClassifyInput struct {
	TopK     int     `json:"top_k,omitempty" jsonschema:"maximum suggestions per note (default 3)"`
	MinScore float64 `json:"min_score,omitempty" jsonschema:"similarity floor in [0,1] (default 0.25)"`
	DryRun   bool    `json:"dry_run,omitempty" jsonschema:"compute suggestions without recording them"`
	Async    bool    `json:"async,omitempty" jsonschema:"run in the background and notify on completion"`
}

// ClassifyOutput is the output schema for the classify tool.
type ClassifyOutput struct {
	RunID       string             `json:"run_id,omitempty"`
	Started     bool               `json:"started,omitempty"`
	Targets     []TargetOutput     `json:"targets,omitempty"`
	Skipped     int                `json:"skipped_subtrees,omitempty"`
}

// TargetOutput is one taggable note with its ranked suggestions.
type TargetOutput struct {
	NoteID      string             `json:"note_id"`
	Title       string             `json:"title"`
	Path        string             `json:"path,omitempty"`
	Suggestions []SuggestionOutput `json:"suggestions"`
}

// SuggestionOutput is a single ranked suggestion.
type SuggestionOutput struct {
	LabelID    string  `json:"label_id"`
	LabelName  string  `json:"label_name"`
	Score      float64 `json:"score"`
	Confidence string  `json:"confidence"`
}

// ApplyOutput is the output schema for the apply tool.
type ApplyOutput struct {
	Applied  int           `json:"applied"`
	Failed   int           `json:"failed"`
	Failures []FailureItem `json:"failures,omitempty"`
}

// FailureItem describes one entry that failed to commit.
type FailureItem struct {
	NoteID  string `json:"note_id"`
	LabelID string `json:"label_id"`
	Error   string `json:"error"`
}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	SyncRunning    bool           `json:"sync_running"`
	SnapshotLabels int            `json:"snapshot_labels"`
	SnapshotNotes  int            `json:"snapshot_notes"`
	EmbeddingModel string         `json:"embedding_model,omitempty"`
	SyncedAt       string         `json:"synced_at,omitempty"`
	Assignments    map[string]int `json:"assignments"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync",
		Description: "Refresh the local snapshot of supertags and untagged notes from Tana",
	}, s.handleSync)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify",
		Description: "Suggest supertags for untagged notes in the snapshot",
	}, s.handleClassify)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "apply",
		Description: "Apply all approved tag assignments back to Tana",
	}, s.handleApply)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report snapshot freshness and assignment ledger counts",
	}, s.handleStatus)
}

// handleSync handles the sync tool invocation.
func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, SyncOutput, error) {
	days := input.Days
	if days <= 0 {
		days = domain.DefaultDaysBack
	}

	now := time.Now()
	window := driven.SyncWindow{
		From: now.AddDate(0, 0, -days),
		To:   now,
	}
	if err := s.ports.Sync.Sync(ctx, window); err != nil {
		return nil, SyncOutput{}, err
	}

	status, err := s.ports.Sync.Status(ctx)
	if err != nil {
		return nil, SyncOutput{}, err
	}
	return nil, SyncOutput{Labels: status.Labels, Notes: status.Notes}, nil
}

// handleClassify handles the classify tool invocation.
func (s *Server) handleClassify(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyInput,
) (*mcp.CallToolResult, ClassifyOutput, error) {
	opts := driving.ClassifyOptions{
		TopK:     input.TopK,
		MinScore: input.MinScore,
		DryRun:   input.DryRun,
	}

	if input.Async {
		// Completion is reported through the configured notifier; the
		// result channel is owned by the runner.
		_, _, err := s.ports.Classify.ClassifyAsync(context.WithoutCancel(ctx), opts)
		if err != nil {
			return nil, ClassifyOutput{}, err
		}
		return nil, ClassifyOutput{Started: true}, nil
	}

	result, err := s.ports.Classify.Classify(ctx, opts)
	if err != nil {
		return nil, ClassifyOutput{}, err
	}

	output := ClassifyOutput{
		RunID:   result.RunID,
		Skipped: result.SkippedSubtrees,
	}
	for _, target := range result.Results {
		out := TargetOutput{
			NoteID: target.Note.ID,
			Title:  target.Note.Title,
			Path:   target.Note.Path(),
		}
		for _, suggestion := range target.Suggestions {
			out.Suggestions = append(out.Suggestions, SuggestionOutput{
				LabelID:    suggestion.LabelID,
				LabelName:  suggestion.LabelName,
				Score:      suggestion.Score,
				Confidence: string(suggestion.Confidence()),
			})
		}
		output.Targets = append(output.Targets, out)
	}
	return nil, output, nil
}

// handleApply handles the apply tool invocation. A partial failure is a
// valid outcome, reported in the output rather than as a tool error.
func (s *Server) handleApply(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ApplyOutput, error) {
	report, err := s.ports.Review.Apply(ctx)
	var partial *domain.PartialApplyError
	if err != nil && !errors.As(err, &partial) {
		return nil, ApplyOutput{}, err
	}

	output := ApplyOutput{
		Applied: report.AppliedCount(),
		Failed:  report.FailedCount(),
	}
	for _, outcome := range report.Outcomes {
		if outcome.Applied {
			continue
		}
		item := FailureItem{
			NoteID:  outcome.Key.NoteID,
			LabelID: outcome.Key.LabelID,
		}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
		}
		output.Failures = append(output.Failures, item)
	}
	return nil, output, nil
}

// handleStatus handles the status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StatusOutput, error) {
	output := StatusOutput{
		Assignments: make(map[string]int),
	}

	syncStatus, err := s.ports.Sync.Status(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	output.SyncRunning = syncStatus.Running

	if s.ports.Snapshot != nil {
		stats, err := s.ports.Snapshot.Stats(ctx)
		if err != nil {
			return nil, StatusOutput{}, err
		}
		output.SnapshotLabels = stats.Labels
		output.SnapshotNotes = stats.Notes
		output.EmbeddingModel = stats.EmbeddingModel
		if !stats.SyncedAt.IsZero() {
			output.SyncedAt = stats.SyncedAt.Format(time.RFC3339)
		}
	}

	if s.ports.Ledger != nil {
		counts, err := s.ports.Ledger.CountByStatus(ctx)
		if err != nil {
			return nil, StatusOutput{}, err
		}
		for status, n := range counts {
			output.Assignments[string(status)] = n
		}
	}
	return nil, output, nil
}
