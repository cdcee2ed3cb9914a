// Package sqlite provides the SQLite-backed snapshot store caching the
// label catalog, label embeddings, and the note forest between syncs.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SnapshotStore = (*Store)(nil)

// Meta keys in the snapshot_meta table.
const (
	metaLabelsSynced   = "labels_synced"
	metaNotesSyncedAt  = "notes_synced_at"
	metaEmbeddingModel = "embedding_model"
)

// Store is the SQLite snapshot store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a snapshot store at dataDir/snapshot.db.
// If dataDir is empty, defaults to ~/.tanatag/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tanatag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "snapshot.db")

	// WAL mode so the watcher and a running classification can read
	// concurrently with a sync writing.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveLabels replaces the cached label catalog. Labels no longer present
// are deleted, which cascades to their cached embeddings; embeddings for
// surviving labels are kept.
func (s *Store) SaveLabels(ctx context.Context, labels []domain.Label) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, label := range labels {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO labels (id, name, description, excluded)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				excluded = excluded.excluded
		`, label.ID, label.Name, label.Description, boolToInt(label.Excluded))
		if err != nil {
			return fmt.Errorf("saving label %s: %w", label.ID, err)
		}
	}

	// Drop labels absent from the new catalog.
	ids := make([]string, 0, len(labels))
	for _, label := range labels {
		ids = append(ids, label.ID)
	}
	if err := deleteMissing(ctx, tx, "labels", ids); err != nil {
		return err
	}

	if err := setMeta(ctx, tx, metaLabelsSynced, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadLabels returns the cached catalog with embeddings where cached.
func (s *Store) LoadLabels(ctx context.Context) ([]domain.Label, error) {
	if _, err := s.getMeta(ctx, metaLabelsSynced); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoSnapshot
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.name, l.description, l.excluded, e.embedding
		FROM labels l
		LEFT JOIN label_embeddings e ON e.label_id = l.id
		ORDER BY l.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying labels: %w", err)
	}
	defer rows.Close()

	var labels []domain.Label
	for rows.Next() {
		var label domain.Label
		var excluded int
		var blob []byte
		if err := rows.Scan(&label.ID, &label.Name, &label.Description, &excluded, &blob); err != nil {
			return nil, fmt.Errorf("scanning label: %w", err)
		}
		label.Excluded = excluded != 0
		label.Embedding = bytesToFloat32Slice(blob)
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// SaveEmbeddings caches computed label embeddings and records the
// producing model.
func (s *Store) SaveEmbeddings(ctx context.Context, model string, embeddings map[string][]float32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := s.getMetaTx(ctx, tx, metaEmbeddingModel)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if current != "" && current != model {
		// Model changed: stale vectors are unusable, drop them all.
		if _, err := tx.ExecContext(ctx, "DELETE FROM label_embeddings"); err != nil {
			return fmt.Errorf("dropping stale embeddings: %w", err)
		}
	}

	for labelID, vector := range embeddings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO label_embeddings (label_id, embedding)
			VALUES (?, ?)
			ON CONFLICT(label_id) DO UPDATE SET embedding = excluded.embedding
		`, labelID, float32SliceToBytes(vector))
		if err != nil {
			return fmt.Errorf("saving embedding for %s: %w", labelID, err)
		}
	}

	if err := setMeta(ctx, tx, metaEmbeddingModel, model); err != nil {
		return err
	}
	return tx.Commit()
}

// EmbeddingModel returns the model recorded with the cached embeddings.
func (s *Store) EmbeddingModel(ctx context.Context) (string, error) {
	model, err := s.getMeta(ctx, metaEmbeddingModel)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return model, err
}

// SaveNotes replaces the cached note snapshot.
func (s *Store) SaveNotes(ctx context.Context, notes []domain.Note, syncedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notes"); err != nil {
		return fmt.Errorf("clearing notes: %w", err)
	}

	for _, note := range notes {
		breadcrumbJSON, err := json.Marshal(note.Breadcrumb)
		if err != nil {
			return fmt.Errorf("marshalling breadcrumb: %w", err)
		}
		var parentID sql.NullString
		if note.ParentID != nil {
			parentID = sql.NullString{String: *note.ParentID, Valid: true}
		}
		var created sql.NullTime
		if !note.Created.IsZero() {
			created = sql.NullTime{Time: note.Created.UTC(), Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO notes (id, title, content, breadcrumb, parent_id, has_tag, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, note.ID, note.Title, note.Content, string(breadcrumbJSON), parentID, boolToInt(note.HasTag), created)
		if err != nil {
			return fmt.Errorf("saving note %s: %w", note.ID, err)
		}
	}

	if err := setMeta(ctx, tx, metaNotesSyncedAt, syncedAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadNotes returns the cached note snapshot.
func (s *Store) LoadNotes(ctx context.Context) ([]domain.Note, error) {
	if _, err := s.getMeta(ctx, metaNotesSyncedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoSnapshot
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, breadcrumb, parent_id, has_tag, created_at
		FROM notes
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var note domain.Note
		var breadcrumbJSON string
		var parentID sql.NullString
		var hasTag int
		var created sql.NullTime
		if err := rows.Scan(&note.ID, &note.Title, &note.Content, &breadcrumbJSON, &parentID, &hasTag, &created); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		if err := json.Unmarshal([]byte(breadcrumbJSON), &note.Breadcrumb); err != nil {
			return nil, fmt.Errorf("unmarshaling breadcrumb: %w", err)
		}
		if parentID.Valid {
			p := parentID.String
			note.ParentID = &p
		}
		note.HasTag = hasTag != 0
		if created.Valid {
			note.Created = created.Time
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// Stats returns snapshot counts for status reporting.
func (s *Store) Stats(ctx context.Context) (driven.SnapshotStats, error) {
	var stats driven.SnapshotStats

	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM labels),
			(SELECT COUNT(*) FROM notes),
			(SELECT COUNT(*) FROM label_embeddings)
	`)
	if err := row.Scan(&stats.Labels, &stats.Notes, &stats.Embeddings); err != nil {
		return stats, fmt.Errorf("counting snapshot rows: %w", err)
	}

	if syncedAt, err := s.getMeta(ctx, metaNotesSyncedAt); err == nil {
		if ts, err := time.Parse(time.RFC3339, syncedAt); err == nil {
			stats.SyncedAt = ts
		}
	}
	if model, err := s.getMeta(ctx, metaEmbeddingModel); err == nil {
		stats.EmbeddingModel = model
	}
	return stats, nil
}

func (s *Store) getMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM snapshot_meta WHERE key = ?", key).Scan(&value)
	return value, err
}

func (s *Store) getMetaTx(ctx context.Context, tx *sql.Tx, key string) (string, error) {
	var value string
	err := tx.QueryRowContext(ctx, "SELECT value FROM snapshot_meta WHERE key = ?", key).Scan(&value)
	return value, err
}

func setMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("setting meta %s: %w", key, err)
	}
	return nil
}

// deleteMissing removes rows from table whose id is not in keep.
func deleteMissing(ctx context.Context, tx *sql.Tx, table string, keep []string) error {
	if len(keep) == 0 {
		_, err := tx.ExecContext(ctx, "DELETE FROM "+table) //nolint:gosec // table name is a constant at call sites
		return err
	}
	placeholders := strings.Repeat("?,", len(keep))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(keep))
	for i, id := range keep {
		args[i] = id
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id NOT IN (%s)", table, placeholders) //nolint:gosec // table name is a constant at call sites
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
