package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/logger"
)

// Ensure ReviewController implements the interface.
var _ driving.ReviewService = (*ReviewController)(nil)

// ReviewController orchestrates human review of pending assignments and
// the apply step. Approve and Reject happen only here, in response to a
// reviewer decision; Applied is set only after the graph source confirms
// the write.
type ReviewController struct {
	ledger   *Ledger
	sessions *SessionManager
	graph    driven.GraphSource
	notifier driven.Notifier
}

// NewReviewController creates a review controller.
func NewReviewController(
	ledger *Ledger,
	sessions *SessionManager,
	graph driven.GraphSource,
	notifier driven.Notifier,
) *ReviewController {
	return &ReviewController{
		ledger:   ledger,
		sessions: sessions,
		graph:    graph,
		notifier: notifier,
	}
}

// StartSession opens an interactive review session for the owner over the
// current Pending queue.
func (c *ReviewController) StartSession(ctx context.Context, owner string) (*domain.Session, error) {
	queue, err := c.PendingQueue(ctx)
	if err != nil {
		return nil, err
	}

	session, err := c.sessions.Create(owner)
	if err != nil {
		return nil, err
	}

	err = c.sessions.Mutate(owner, func(s *domain.Session) error {
		s.Queue = queue
		s.State = domain.SessionReviewing
		return nil
	})
	if err != nil {
		return nil, err
	}
	session.Queue = queue
	session.State = domain.SessionReviewing
	return session, nil
}

// Decide records an approve or reject for the pair on behalf of the
// owner's session. The decision lands in the ledger first; only then does
// the session cursor advance, so a crash between the two leaves a decided
// entry and a stale cursor rather than a lost decision.
func (c *ReviewController) Decide(ctx context.Context, owner string, key domain.AssignmentKey, approve bool) error {
	// Touch the session first so an expired one fails before the ledger
	// is written.
	if err := c.sessions.Mutate(owner, func(*domain.Session) error { return nil }); err != nil {
		return err
	}

	var err error
	if approve {
		err = c.ledger.Approve(ctx, key)
	} else {
		err = c.ledger.Reject(ctx, key)
	}
	if err != nil {
		return err
	}

	return c.sessions.Mutate(owner, func(s *domain.Session) error {
		s.Touched = append(s.Touched, key)
		if cur := s.Current(); cur != nil && cur.Note.ID == key.NoteID {
			s.Position++
		}
		return nil
	})
}

// Skip advances the owner's session past the current target without
// deciding anything; its entries stay Pending.
func (c *ReviewController) Skip(_ context.Context, owner string) error {
	return c.sessions.Mutate(owner, func(s *domain.Session) error {
		if s.Current() != nil {
			s.Position++
		}
		return nil
	})
}

// CancelSession removes the owner's session immediately. Safe to issue at
// any point in the review flow; the ledger is untouched, so no entry is
// ever stuck between states.
func (c *ReviewController) CancelSession(_ context.Context, owner string) error {
	return c.sessions.Cancel(owner)
}

// Apply hands every Approved entry to the graph source in creation order.
// Each entry's outcome is independent: a failed write leaves that entry
// Approved and retryable while the rest of the batch proceeds.
func (c *ReviewController) Apply(ctx context.Context) (domain.ApplyReport, error) {
	approved, err := c.ledger.ListByStatus(ctx, domain.StatusApproved)
	if err != nil {
		return domain.ApplyReport{}, fmt.Errorf("list approved: %w", err)
	}

	logger.Section("Apply")
	logger.Info("%d approved entries", len(approved))

	report := domain.ApplyReport{}
	for _, entry := range approved {
		outcome := domain.ApplyOutcome{
			Key:       entry.Key(),
			NoteTitle: entry.NoteTitle,
			LabelName: entry.LabelName,
		}

		if err := c.graph.ApplyLabel(ctx, entry.NoteID, entry.LabelID); err != nil {
			outcome.Err = err
			logger.Warn("Apply failed for note %s label %s: %v", entry.NoteID, entry.LabelID, err)
			report.Outcomes = append(report.Outcomes, outcome)
			continue
		}

		if err := c.ledger.MarkApplied(ctx, entry.Key()); err != nil {
			// The graph write succeeded but the ledger did not record it;
			// surfacing the error keeps the entry retryable, and re-apply
			// is idempotent on the graph side.
			outcome.Err = err
			report.Outcomes = append(report.Outcomes, outcome)
			continue
		}
		outcome.Applied = true
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if c.notifier != nil {
		if nerr := c.notifier.ApplyResult(ctx, report); nerr != nil {
			logger.Warn("Apply-result notification failed: %v", nerr)
		}
	}

	if report.FailedCount() > 0 {
		return report, &domain.PartialApplyError{Report: report}
	}
	return report, nil
}

// PendingQueue returns the Pending entries grouped per target note, in
// creation order, for queued review and for the interactive session feed.
func (c *ReviewController) PendingQueue(ctx context.Context) ([]domain.TargetSuggestions, error) {
	pending, err := c.ledger.ListByStatus(ctx, domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	byNote := make(map[string]*domain.TargetSuggestions)
	var order []string
	for _, entry := range pending {
		group, ok := byNote[entry.NoteID]
		if !ok {
			group = &domain.TargetSuggestions{
				Note: domain.Note{ID: entry.NoteID, Title: entry.NoteTitle},
			}
			byNote[entry.NoteID] = group
			order = append(order, entry.NoteID)
		}
		group.Suggestions = append(group.Suggestions, domain.Suggestion{
			NoteID:    entry.NoteID,
			LabelID:   entry.LabelID,
			LabelName: entry.LabelName,
			Score:     entry.Score,
		})
	}

	queue := make([]domain.TargetSuggestions, 0, len(order))
	for _, noteID := range order {
		group := byNote[noteID]
		sort.Slice(group.Suggestions, func(i, j int) bool {
			if group.Suggestions[i].Score != group.Suggestions[j].Score {
				return group.Suggestions[i].Score > group.Suggestions[j].Score
			}
			return group.Suggestions[i].LabelID < group.Suggestions[j].LabelID
		})
		queue = append(queue, *group)
	}
	return queue, nil
}
