package domain

import "time"

// AssignmentStatus is the review state of a ledger entry.
type AssignmentStatus string

// Assignment statuses. The only legal transitions are
// Pending → Approved → Applied and Pending → Rejected.
const (
	StatusPending  AssignmentStatus = "pending"
	StatusApproved AssignmentStatus = "approved"
	StatusRejected AssignmentStatus = "rejected"
	StatusApplied  AssignmentStatus = "applied"
)

// Valid reports whether s is a known status.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusApplied:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s AssignmentStatus) Terminal() bool {
	return s == StatusRejected || s == StatusApplied
}

// CanTransition reports whether the state machine allows moving from s to
// next. No transition skips a state.
func (s AssignmentStatus) CanTransition(next AssignmentStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusApplied
	default:
		return false
	}
}

// Assignment is a durable ledger entry tracking a suggestion from proposal
// through human decision to application. Entries are unique per
// (NoteID, LabelID) pair while the status is not Applied.
type Assignment struct {
	NoteID    string           `json:"note_id"`
	LabelID   string           `json:"label_id"`
	NoteTitle string           `json:"note_title,omitempty"`
	LabelName string           `json:"label_name,omitempty"`
	Score     float64          `json:"score"`
	Status    AssignmentStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Key returns the ledger key for this assignment.
func (a Assignment) Key() AssignmentKey {
	return AssignmentKey{NoteID: a.NoteID, LabelID: a.LabelID}
}

// AssignmentKey identifies a ledger entry.
type AssignmentKey struct {
	NoteID  string `json:"note_id"`
	LabelID string `json:"label_id"`
}

// ApplyOutcome is the per-entry result of one apply attempt.
type ApplyOutcome struct {
	Key       AssignmentKey
	NoteTitle string
	LabelName string
	Applied   bool
	Err       error
}

// ApplyReport collects the per-entry outcomes of an apply batch.
// Partial failure is expected: succeeded entries move to Applied, failed
// entries stay Approved and are retried on the next apply call.
type ApplyReport struct {
	Outcomes []ApplyOutcome
}

// AppliedCount returns the number of entries committed in this batch.
func (r ApplyReport) AppliedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Applied {
			n++
		}
	}
	return n
}

// FailedCount returns the number of entries that failed to commit.
func (r ApplyReport) FailedCount() int {
	return len(r.Outcomes) - r.AppliedCount()
}
