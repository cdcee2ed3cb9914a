package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/logger"
)

// SessionManager owns the per-reviewer interactive review contexts.
// Sessions are process-local and never persisted. The manager is handed
// to operations by reference; all mutations of a session go through the
// manager's lock, so the periodic sweep cannot race a live interaction.
type SessionManager struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	byOwner  map[string]*domain.Session
	sweeping bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewSessionManager creates a manager with the given idle TTL.
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = domain.SessionTTL
	}
	return &SessionManager{
		ttl:     ttl,
		now:     time.Now,
		byOwner: make(map[string]*domain.Session),
	}
}

// Create starts a session for the owner. Fails with
// domain.ErrActiveSession while the owner already has a live session;
// expired sessions are reaped on the spot so a new create succeeds after
// the TTL even between sweeps.
func (m *SessionManager) Create(owner string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byOwner[owner]; ok {
		if !existing.Expired(m.now(), m.ttl) {
			return nil, fmt.Errorf("%w: owner %s", domain.ErrActiveSession, owner)
		}
		delete(m.byOwner, owner)
	}

	now := m.now()
	s := &domain.Session{
		ID:           uuid.NewString(),
		Owner:        owner,
		State:        domain.SessionIdle,
		CreatedAt:    now,
		LastActivity: now,
	}
	m.byOwner[owner] = s
	logger.Info("Created session %s for %s", s.ID, owner)
	return s, nil
}

// Mutate runs fn against the owner's live session under the manager lock,
// bumping last activity. Returns domain.ErrNoSession when the owner has
// no live session.
func (m *SessionManager) Mutate(owner string, fn func(*domain.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byOwner[owner]
	if !ok || s.Expired(m.now(), m.ttl) {
		if ok {
			delete(m.byOwner, owner)
		}
		return fmt.Errorf("%w: owner %s", domain.ErrNoSession, owner)
	}
	s.LastActivity = m.now()
	return fn(s)
}

// Cancel removes the owner's session immediately regardless of idle time.
// Pending ledger entries touched by the session stay Pending.
func (m *SessionManager) Cancel(owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byOwner[owner]
	if !ok {
		return fmt.Errorf("%w: owner %s", domain.ErrNoSession, owner)
	}
	delete(m.byOwner, owner)
	logger.Info("Cancelled session %s for %s", s.ID, owner)
	return nil
}

// Sweep removes sessions idle longer than the TTL and returns how many
// were removed. In-flight reviews are implicitly cancelled; their Pending
// entries are untouched, just unreviewed.
func (m *SessionManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for owner, s := range m.byOwner {
		if s.Expired(now, m.ttl) {
			delete(m.byOwner, owner)
			removed++
		}
	}
	if removed > 0 {
		logger.Info("Swept %d expired sessions", removed)
	}
	return removed
}

// StartSweeper runs the periodic sweep until the context is cancelled or
// StopSweeper is called.
func (m *SessionManager) StartSweeper(ctx context.Context, interval time.Duration) {
	m.mu.Lock()
	if m.sweeping {
		m.mu.Unlock()
		return
	}
	m.sweeping = true
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

// StopSweeper stops the periodic sweep and waits for it to exit.
func (m *SessionManager) StopSweeper() {
	m.mu.Lock()
	if !m.sweeping {
		m.mu.Unlock()
		return
	}
	m.sweeping = false
	close(m.stopCh)
	m.mu.Unlock()
	m.wg.Wait()
}

// Active returns the number of live sessions.
func (m *SessionManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byOwner)
}
