package domain

import "time"

// SessionTTL is how long a review session may sit idle before the
// periodic sweep removes it.
const SessionTTL = 30 * time.Minute

// SessionState is the lifecycle phase of a review session.
type SessionState string

// Session states.
const (
	SessionIdle        SessionState = "idle"
	SessionSyncing     SessionState = "syncing"
	SessionClassifying SessionState = "classifying"
	SessionReviewing   SessionState = "reviewing"
	SessionApplying    SessionState = "applying"
)

// Session is a time-boxed interactive review context for one reviewer.
// Sessions are ephemeral and process-local: they are never persisted and
// are destroyed on cancel, completion or idle expiry. A session is owned
// exclusively by its reviewer; the manager serialises all mutations.
type Session struct {
	// ID is the unique session identifier.
	ID string

	// Owner identifies the reviewer. One live session per owner.
	Owner string

	// State is the current lifecycle phase.
	State SessionState

	// Queue holds the targets still awaiting review, in emission order.
	Queue []TargetSuggestions

	// Position is the index of the target currently under review.
	Position int

	// Touched records the ledger keys this session has decided, so a
	// cancel can report what was left Pending.
	Touched []AssignmentKey

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// LastActivity is bumped on every reviewer interaction and drives
	// idle expiry.
	LastActivity time.Time
}

// Expired reports whether the session has been idle longer than ttl at
// the given instant.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivity) > ttl
}

// Current returns the target under review, or nil when the queue is done.
func (s *Session) Current() *TargetSuggestions {
	if s.Position < 0 || s.Position >= len(s.Queue) {
		return nil
	}
	return &s.Queue[s.Position]
}

// Remaining returns how many targets are still to be reviewed.
func (s *Session) Remaining() int {
	if s.Position >= len(s.Queue) {
		return 0
	}
	return len(s.Queue) - s.Position
}
