// Package store persists character records in SQLite. The coordinator only
// sees the character.Store interface; this is the durable default
// implementation behind it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"mudmind/internal/character"
	"mudmind/internal/world"
)

// SQLiteStore implements character.Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS characters (
		name        TEXT PRIMARY KEY,
		data        TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS memories (
		id          TEXT PRIMARY KEY,
		character   TEXT NOT NULL REFERENCES characters(name),
		type        TEXT,
		summary     TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_character ON memories(character, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save writes the record and its memory list in one transaction. The memory
// rows are rewritten wholesale; the list is bounded at twenty entries, so the
// churn is trivial and the result is exactly what the record holds.
func (s *SQLiteStore) Save(ctx context.Context, rec *character.Record) error {
	// Memories live in their own table; strip them from the JSON blob.
	slim := *rec
	slim.Memories = nil
	data, err := json.Marshal(&slim)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO characters (name, data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		rec.Name, string(data),
		rec.CreatedAt.Format(time.RFC3339Nano),
		rec.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert character: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE character = ?`, rec.Name); err != nil {
		return fmt.Errorf("clear memories: %w", err)
	}
	for _, m := range rec.Memories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO memories (id, character, type, summary, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			s.newID(), rec.Name, m.Type, m.Summary, m.At.Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert memory: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads a record by character name, restoring the most recent memories
// in insertion order. Returns character.ErrNotFound when absent.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*character.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM characters WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, character.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load character: %w", err)
	}

	var rec character.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec.Graph == nil {
		rec.Graph = world.NewGraph()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT type, summary, created_at FROM memories
		WHERE character = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, name, character.MaxMemories)
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}
	defer rows.Close()

	var memories []character.Memory
	for rows.Next() {
		var m character.Memory
		var at string
		if err := rows.Scan(&m.Type, &m.Summary, &at); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		m.At, _ = time.Parse(time.RFC3339Nano, at)
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}
	// Reverse the DESC page back into insertion order.
	for i, j := 0, len(memories)-1; i < j; i, j = i+1, j-1 {
		memories[i], memories[j] = memories[j], memories[i]
	}
	rec.Memories = memories

	return &rec, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
