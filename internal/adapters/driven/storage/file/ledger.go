// Package file provides a JSON file-backed assignment ledger. The whole
// ledger is rewritten through a temp-file-then-rename swap on every
// mutation, so a crash mid-write never corrupts committed entries.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
)

// Ensure LedgerStore implements the interface.
var _ driven.LedgerStore = (*LedgerStore)(nil)

// DefaultFileName is the ledger file name inside the data directory.
const DefaultFileName = "ledger.json"

// ledgerFile is the on-disk document format.
type ledgerFile struct {
	Version int                 `json:"version"`
	Entries []domain.Assignment `json:"entries"`
}

// LedgerStore keeps the full ledger in memory and persists it to a JSON
// file on every mutation.
type LedgerStore struct {
	mu       sync.RWMutex
	filePath string
	entries  map[domain.AssignmentKey]domain.Assignment
}

// NewLedgerStore opens or creates the ledger at dataDir/ledger.json.
// If dataDir is empty, defaults to ~/.tanatag.
func NewLedgerStore(dataDir string) (*LedgerStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(home, ".tanatag")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, err
	}

	s := &LedgerStore{
		filePath: filepath.Join(dataDir, DefaultFileName),
		entries:  make(map[domain.AssignmentKey]domain.Assignment),
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return s, nil
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

// Put stores or replaces an entry and persists the ledger.
func (s *LedgerStore) Put(_ context.Context, a domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[a.Key()] = a
	return s.save()
}

// Update applies fn to the entry under the store lock and persists the
// result. fn receives a copy; returning an error aborts without persisting.
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
	return s.save()
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
	sortAssignments(out)
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

// Close releases resources. The ledger is persisted on every mutation, so
// there is nothing to flush.
func (s *LedgerStore) Close() error {
	return nil
}

// Path returns the ledger file path.
func (s *LedgerStore) Path() string {
	return s.filePath
}

// load reads the ledger file into memory. A missing file starts empty.
func (s *LedgerStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var doc ledgerFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}
	for _, entry := range doc.Entries {
		s.entries[entry.Key()] = entry
	}
	return nil
}

// save writes the ledger atomically: marshal to a temp file in the same
// directory, fsync, then rename over the live file (caller must hold lock).
func (s *LedgerStore) save() error {
	entries := make([]domain.Assignment, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	sortAssignments(entries)

	data, err := json.MarshalIndent(ledgerFile{Version: 1, Entries: entries}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".ledger-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func sortAssignments(entries []domain.Assignment) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		if entries[i].NoteID != entries[j].NoteID {
			return entries[i].NoteID < entries[j].NoteID
		}
		return entries[i].LabelID < entries[j].LabelID
	})
}
