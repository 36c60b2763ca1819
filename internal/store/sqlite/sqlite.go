// Package sqlite implements store.ActorDB and store.ShortTermMemoryDB on
// top of modernc.org/sqlite, a pure-Go driver (no cgo), giving the
// buffer-write chain in internal/worker a real persisted backend instead
// of the in-memory one in internal/store/memory.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/store"
	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// Store wraps a *sql.DB and implements store.ActorDB and
// store.ShortTermMemoryDB. It does not own migrations beyond its own
// schema; callers run Migrate once at startup.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at dsn using the pure-Go
// modernc.org/sqlite driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already-open *sql.DB, primarily so tests can supply a
// go-sqlmock-backed DB without touching the filesystem.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the schema if it does not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS actors (
			actor_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			last_seen TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS buffer_messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			actor_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			msg_id TEXT NOT NULL,
			name TEXT NOT NULL,
			contents TEXT NOT NULL,
			ts TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_buffer_messages_actor ON buffer_messages(actor_id, seq)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, actorID string) (store.ActorRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT actor_id, user_id, last_seen FROM actors WHERE actor_id = ?`, actorID)
	var rec store.ActorRecord
	if err := row.Scan(&rec.ActorID, &rec.UserID, &rec.LastSeen); err != nil {
		return store.ActorRecord{}, fmt.Errorf("get actor %s: %w", actorID, err)
	}
	return rec, nil
}

func (s *Store) Save(ctx context.Context, record store.ActorRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actors (actor_id, user_id, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(actor_id) DO UPDATE SET user_id = excluded.user_id, last_seen = excluded.last_seen
	`, record.ActorID, record.UserID, record.LastSeen)
	if err != nil {
		return fmt.Errorf("save actor %s: %w", record.ActorID, err)
	}
	return nil
}

// Append inserts one buffer message row. The autoincrement seq column is
// what Recent orders by — it is the persisted analogue of the in-memory
// backend's slice append order.
func (s *Store) Append(ctx context.Context, actorID string, msg models.BufferMessage) error {
	contents, err := json.Marshal(msg.Contents)
	if err != nil {
		return fmt.Errorf("marshal buffer contents: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO buffer_messages (actor_id, kind, msg_id, name, contents, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`, actorID, string(msg.Kind), msg.ID, msg.Name, string(contents), msg.Time)
	if err != nil {
		return fmt.Errorf("append buffer message for %s: %w", actorID, err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, actorID string, limit int) ([]models.BufferMessage, error) {
	query := `
		SELECT kind, msg_id, name, contents, ts FROM buffer_messages
		WHERE actor_id = ? ORDER BY seq DESC`
	args := []any{actorID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent buffer messages for %s: %w", actorID, err)
	}
	defer rows.Close()

	var out []models.BufferMessage
	for rows.Next() {
		var kind, id, name, contents string
		var ts time.Time
		if err := rows.Scan(&kind, &id, &name, &contents, &ts); err != nil {
			return nil, fmt.Errorf("scan buffer message: %w", err)
		}
		var blocks []models.Content
		if err := json.Unmarshal([]byte(contents), &blocks); err != nil {
			return nil, fmt.Errorf("unmarshal buffer contents: %w", err)
		}
		out = append(out, models.BufferMessage{
			Kind:     models.BufferKind(kind),
			ID:       id,
			Name:     name,
			Contents: blocks,
			Time:     ts,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returns newest-first for LIMIT to work; Recent's contract is
	// oldest-first so callers can render a chronological window.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
