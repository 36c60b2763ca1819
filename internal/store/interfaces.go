// Package store defines the persisted-record interfaces the core consumes
// for actors, short-term buffer history, and long-term memory. The core
// never depends on a concrete backend — only internal/store/memory and
// internal/store/sqlite do.
package store

import (
	"context"
	"time"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// ActorRecord is the minimal persisted state for one actor: its id and
// when it was last seen. The core doesn't need more than this to decide
// whether an actor exists.
type ActorRecord struct {
	ActorID  string
	UserID   string
	LastSeen time.Time
}

// ActorDB persists actor existence/metadata, keyed by actor id.
type ActorDB interface {
	Get(ctx context.Context, actorID string) (ActorRecord, error)
	Save(ctx context.Context, record ActorRecord) error
}

// ShortTermMemoryDB persists the buffer history ActorWorker renders into
// {MEMORY_BUFFER}. Append must preserve call order per actor — it is the
// backing store behind the serialized write chain in internal/worker.
type ShortTermMemoryDB interface {
	Append(ctx context.Context, actorID string, msg models.BufferMessage) error
	Recent(ctx context.Context, actorID string, limit int) ([]models.BufferMessage, error)
}

// LongTermMemoryRecord is one durable, searchable memory entry.
type LongTermMemoryRecord struct {
	ID      string
	ActorID string
	Text    string
	Time    time.Time
}

// LongTermMemoryDB persists long-term memory records.
type LongTermMemoryDB interface {
	Save(ctx context.Context, record LongTermMemoryRecord) error
	Get(ctx context.Context, id string) (LongTermMemoryRecord, error)
}

// LongTermMemorySearcher performs similarity/keyword search over an
// actor's long-term memory. It is a separate interface from
// LongTermMemoryDB because a vector-search backend and a CRUD backend
// are often different services even when they share a record type.
type LongTermMemorySearcher interface {
	Search(ctx context.Context, actorID, query string, topK int) ([]LongTermMemoryRecord, error)
}
