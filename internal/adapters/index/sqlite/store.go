// Package sqlite provides the persistent vector index backed by a
// single SQLite database file. Vectors are stored as little-endian
// float32 blobs; search is a brute-force dot product over the
// collection, which is exact and fast enough for local corpora.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/doclore/doclore/internal/adapters/index/sqlite/migrations"
	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.VectorIndex = (*Store)(nil)
	_ driven.TurnSink    = (*Store)(nil)
)

// DefaultCollection is used when the config names none.
const DefaultCollection = "default"

// Config holds configuration for the SQLite index.
type Config struct {
	// Path is the database file location. Empty defaults to
	// ~/.doclore/index.db.
	Path string

	// Collection is the named collection to operate on.
	Collection string

	// Model is the embedding model the caller will write vectors from.
	// Stored as part of the collection identity so a model switch is
	// caught instead of silently mixing vector spaces.
	Model string
}

// Store is the SQLite-backed vector index for one collection.
type Store struct {
	db         *sql.DB
	path       string
	collection string
	model      string
}

// NewStore opens (creating if needed) the index database and ensures
// the collection row exists.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		cfg.Path = filepath.Join(home, ".doclore", "index.db")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:         db,
		path:       cfg.Path,
		collection: cfg.Collection,
		model:      cfg.Model,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := s.ensureCollection(); err != nil {
		db.Close()
		return nil, err
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

// Collection returns the collection name this store operates on.
func (s *Store) Collection() string {
	return s.collection
}

// Upsert inserts entries, overwriting any existing entry with the same
// chunk ID. The collection's identity (model, dimensions) is pinned by
// the first write; later writes must match it.
func (s *Store) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	dims, err := s.validateEntries(ctx, entries)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	if err := insertEntries(ctx, tx, s.collection, entries); err != nil {
		return err
	}
	if err := s.pinIdentity(ctx, tx, dims); err != nil {
		return err
	}

	return tx.Commit()
}

// Replace atomically swaps the whole collection for the given entries.
// The delete and the inserts share one transaction, so a reader never
// sees the index half-populated or emptied without its replacement.
func (s *Store) Replace(ctx context.Context, entries []domain.IndexEntry) error {
	dims := 0
	if len(entries) > 0 {
		var err error
		if dims, err = entryDimensions(entries); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE collection = ?`, s.collection); err != nil {
		return fmt.Errorf("clearing collection: %w", err)
	}

	if len(entries) > 0 {
		if err := insertEntries(ctx, tx, s.collection, entries); err != nil {
			return err
		}
	}

	// a rebuild re-pins the identity, whatever it was before
	if _, err := tx.ExecContext(ctx, `
		UPDATE collections SET model = ?, dimensions = ?, updated_at = ?
		WHERE name = ?
	`, s.model, dims, time.Now().UTC(), s.collection); err != nil {
		return fmt.Errorf("updating collection identity: %w", err)
	}

	return tx.Commit()
}

// Search returns the k stored entries most similar to the query
// vector, best first. Ties keep insertion order. k larger than the
// collection returns everything.
func (s *Store) Search(ctx context.Context, vector []float32, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}

	dims, err := s.Dimensions(ctx)
	if err != nil {
		return nil, err
	}
	if dims > 0 && len(vector) != dims {
		return nil, fmt.Errorf("query has %d dimensions, collection has %d: %w",
			len(vector), dims, domain.ErrDimensionMismatch)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, source, position, content, embedding
		FROM chunks WHERE collection = ? ORDER BY rowid
	`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var scored domain.RetrievalResult
	for rows.Next() {
		var (
			chunk domain.Chunk
			blob  []byte
		)
		if err := rows.Scan(&chunk.ID, &chunk.Source, &chunk.Position, &chunk.Content, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		embedding := bytesToFloat32Slice(blob)
		scored = append(scored, domain.ScoredChunk{
			Chunk: chunk,
			Score: dotProduct(vector, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// Size returns the number of stored entries.
func (s *Store) Size(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE collection = ?`, s.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Dimensions returns the pinned vector size, or 0 before the first write.
func (s *Store) Dimensions(ctx context.Context) (int, error) {
	var dims int
	err := s.db.QueryRowContext(ctx,
		`SELECT dimensions FROM collections WHERE name = ?`, s.collection).Scan(&dims)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading collection identity: %w", err)
	}
	return dims, nil
}

// Model returns the embedding model the collection was built with, or
// empty before the first write.
func (s *Store) Model(ctx context.Context) (string, error) {
	var model string
	err := s.db.QueryRowContext(ctx,
		`SELECT model FROM collections WHERE name = ?`, s.collection).Scan(&model)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading collection identity: %w", err)
	}
	return model, nil
}

// Drop discards all entries and the collection identity.
func (s *Store) Drop(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin drop: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE collection = ?`, s.collection); err != nil {
		return fmt.Errorf("dropping chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE collections SET model = '', dimensions = 0, updated_at = ?
		WHERE name = ?
	`, time.Now().UTC(), s.collection); err != nil {
		return fmt.Errorf("resetting collection identity: %w", err)
	}

	return tx.Commit()
}

// RecordTurn appends a completed turn to the audit log.
func (s *Store) RecordTurn(ctx context.Context, turn domain.Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (id, collection, question, answer, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, turn.ID, s.collection, turn.Question, turn.Answer, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording turn: %w", err)
	}
	return nil
}

// ensureCollection creates the identity row when it is missing.
func (s *Store) ensureCollection() error {
	_, err := s.db.Exec(`
		INSERT INTO collections (name, model, dimensions) VALUES (?, '', 0)
		ON CONFLICT(name) DO NOTHING
	`, s.collection)
	if err != nil {
		return fmt.Errorf("ensuring collection %q: %w", s.collection, err)
	}
	return nil
}

// validateEntries checks internal consistency and compatibility with
// the pinned collection identity, returning the entries' dimensions.
func (s *Store) validateEntries(ctx context.Context, entries []domain.IndexEntry) (int, error) {
	dims, err := entryDimensions(entries)
	if err != nil {
		return 0, err
	}

	pinned, err := s.Dimensions(ctx)
	if err != nil {
		return 0, err
	}
	if pinned > 0 && dims != pinned {
		return 0, fmt.Errorf("entries have %d dimensions, collection has %d: %w",
			dims, pinned, domain.ErrDimensionMismatch)
	}

	model, err := s.Model(ctx)
	if err != nil {
		return 0, err
	}
	if model != "" && s.model != "" && model != s.model {
		return 0, fmt.Errorf("collection %q was built with model %q, not %q: rebuild required",
			s.collection, model, s.model)
	}

	return dims, nil
}

// entryDimensions returns the common vector length of the entries.
func entryDimensions(entries []domain.IndexEntry) (int, error) {
	dims := len(entries[0].Embedding)
	if dims == 0 {
		return 0, fmt.Errorf("%w: empty embedding for chunk %s",
			domain.ErrInvalidInput, entries[0].Chunk.ID)
	}
	for _, e := range entries[1:] {
		if len(e.Embedding) != dims {
			return 0, fmt.Errorf("chunk %s has %d dimensions, batch has %d: %w",
				e.Chunk.ID, len(e.Embedding), dims, domain.ErrDimensionMismatch)
		}
	}
	return dims, nil
}

// insertEntries writes the entries within the given transaction.
func insertEntries(ctx context.Context, tx *sql.Tx, collection string, entries []domain.IndexEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (chunk_id, collection, source, position, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, chunk_id) DO UPDATE SET
			source = excluded.source,
			position = excluded.position,
			content = excluded.content,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		blob := float32SliceToBytes(e.Embedding)
		if _, err := stmt.ExecContext(ctx,
			e.Chunk.ID, collection, e.Chunk.Source, e.Chunk.Position, e.Chunk.Content, blob); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", e.Chunk.ID, err)
		}
	}
	return nil
}

// pinIdentity records the model and dimensions on the collection row.
func (s *Store) pinIdentity(ctx context.Context, tx *sql.Tx, dims int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE collections SET model = ?, dimensions = ?, updated_at = ?
		WHERE name = ?
	`, s.model, dims, time.Now().UTC(), s.collection)
	if err != nil {
		return fmt.Errorf("pinning collection identity: %w", err)
	}
	return nil
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
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
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
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// dotProduct is the similarity measure; with L2-normalized vectors it
// equals cosine similarity.
func dotProduct(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// float32SliceToBytes converts a []float32 to little-endian bytes.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts little-endian bytes back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
