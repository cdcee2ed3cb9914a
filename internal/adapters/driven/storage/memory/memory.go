// Package memory provides in-memory implementations of the storage ports,
// used in tests and for dry-run invocations that must not touch disk.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
)

// Ensure interfaces are implemented.
var (
	_ driven.LedgerStore   = (*LedgerStore)(nil)
	_ driven.SnapshotStore = (*SnapshotStore)(nil)
)

// LedgerStore is an in-memory assignment ledger.
type LedgerStore struct {
	mu      sync.RWMutex
	entries map[domain.AssignmentKey]domain.Assignment
}

// NewLedgerStore creates an empty in-memory ledger.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		entries: make(map[domain.AssignmentKey]domain.Assignment),
	}
}

// Get retrieves an entry by key.
func (s *LedgerStore) Get(_ context.Context, key domain.AssignmentKey) (*domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("assignment %s/%s: %w", key.NoteID, key.LabelID, domain.ErrNotFound)
	}
	copied := entry
	return &copied, nil
}

// Put stores or replaces an entry.
func (s *LedgerStore) Put(_ context.Context, a domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[a.Key()] = a
	return nil
}

// Update applies fn to the entry under the store lock.
func (s *LedgerStore) Update(_ context.Context, key domain.AssignmentKey, fn func(*domain.Assignment) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return fmt.Errorf("assignment %s/%s: %w", key.NoteID, key.LabelID, domain.ErrNotFound)
	}
	if err := fn(&entry); err != nil {
		return err
	}
	s.entries[key] = entry
	return nil
}

// ListByStatus returns all entries in the given status, ordered by
// creation time then key.
func (s *LedgerStore) ListByStatus(_ context.Context, status domain.AssignmentStatus) ([]domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Assignment
	for _, entry := range s.entries {
		if entry.Status == status {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if out[i].NoteID != out[j].NoteID {
			return out[i].NoteID < out[j].NoteID
		}
		return out[i].LabelID < out[j].LabelID
	})
	return out, nil
}

// CountByStatus returns entry counts keyed by status.
func (s *LedgerStore) CountByStatus(_ context.Context) (map[domain.AssignmentStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.AssignmentStatus]int)
	for _, entry := range s.entries {
		counts[entry.Status]++
	}
	return counts, nil
}

// Close releases resources.
func (s *LedgerStore) Close() error {
	return nil
}

// SnapshotStore is an in-memory snapshot cache.
type SnapshotStore struct {
	mu           sync.RWMutex
	labels       []domain.Label
	labelsSynced bool
	embeddings   map[string][]float32
	model        string
	notes        []domain.Note
	notesSynced  bool
	syncedAt     time.Time
}

// NewSnapshotStore creates an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		embeddings: make(map[string][]float32),
	}
}

// SaveLabels replaces the cached label catalog.
func (s *SnapshotStore) SaveLabels(_ context.Context, labels []domain.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.labels = append([]domain.Label(nil), labels...)
	s.labelsSynced = true

	keep := make(map[string]bool, len(labels))
	for _, label := range labels {
		keep[label.ID] = true
	}
	for id := range s.embeddings {
		if !keep[id] {
			delete(s.embeddings, id)
		}
	}
	return nil
}

// LoadLabels returns the cached catalog with embeddings where cached.
func (s *SnapshotStore) LoadLabels(_ context.Context) ([]domain.Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.labelsSynced {
		return nil, domain.ErrNoSnapshot
	}
	out := make([]domain.Label, len(s.labels))
	for i, label := range s.labels {
		label.Embedding = s.embeddings[label.ID]
		out[i] = label
	}
	return out, nil
}

// SaveEmbeddings caches computed label embeddings.
func (s *SnapshotStore) SaveEmbeddings(_ context.Context, model string, embeddings map[string][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != "" && s.model != model {
		s.embeddings = make(map[string][]float32)
	}
	for id, vector := range embeddings {
		s.embeddings[id] = vector
	}
	s.model = model
	return nil
}

// EmbeddingModel returns the recorded embedding model.
func (s *SnapshotStore) EmbeddingModel(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model, nil
}

// SaveNotes replaces the cached note snapshot.
func (s *SnapshotStore) SaveNotes(_ context.Context, notes []domain.Note, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = append([]domain.Note(nil), notes...)
	s.notesSynced = true
	s.syncedAt = syncedAt
	return nil
}

// LoadNotes returns the cached note snapshot.
func (s *SnapshotStore) LoadNotes(_ context.Context) ([]domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.notesSynced {
		return nil, domain.ErrNoSnapshot
	}
	return append([]domain.Note(nil), s.notes...), nil
}

// Stats returns snapshot counts.
func (s *SnapshotStore) Stats(_ context.Context) (driven.SnapshotStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return driven.SnapshotStats{
		Labels:         len(s.labels),
		Notes:          len(s.notes),
		Embeddings:     len(s.embeddings),
		SyncedAt:       s.syncedAt,
		EmbeddingModel: s.model,
	}, nil
}

// Close releases resources.
func (s *SnapshotStore) Close() error {
	return nil
}
