// Package memory implements store.ActorDB, store.ShortTermMemoryDB,
// store.LongTermMemoryDB, and store.LongTermMemorySearcher entirely
// in-process. It satisfies the ordered-append guarantee spec.md requires
// without a real backend, matching the Open Question decision that the
// spec needs only that guarantee, not durability.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/store"
	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// Store is a single in-memory backend. It is not itself any of the
// store interfaces — Actors(), Buffers(), and LongTerm() return thin
// adapters (Actors and Buffers one interface each, LongTerm both
// long-term interfaces), since Go can't give one type two methods both
// named Get with different signatures.
type Store struct {
	mu       sync.Mutex
	actors   map[string]store.ActorRecord
	buffers  map[string][]models.BufferMessage
	longTerm map[string]store.LongTermMemoryRecord
}

// New builds an empty Store.
func New() *Store {
	return &Store{
		actors:   make(map[string]store.ActorRecord),
		buffers:  make(map[string][]models.BufferMessage),
		longTerm: make(map[string]store.LongTermMemoryRecord),
	}
}

// Actors returns a store.ActorDB backed by this Store.
func (s *Store) Actors() store.ActorDB { return actorAdapter{s} }

// Buffers returns a store.ShortTermMemoryDB backed by this Store.
func (s *Store) Buffers() store.ShortTermMemoryDB { return bufferAdapter{s} }

// LongTerm returns a value implementing both store.LongTermMemoryDB and
// store.LongTermMemorySearcher, backed by this Store.
func (s *Store) LongTerm() *longTermAdapter { return &longTermAdapter{s} }

type actorAdapter struct{ s *Store }

func (a actorAdapter) Get(_ context.Context, actorID string) (store.ActorRecord, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	rec, ok := a.s.actors[actorID]
	if !ok {
		return store.ActorRecord{}, fmt.Errorf("actor %s not found", actorID)
	}
	return rec, nil
}

func (a actorAdapter) Save(_ context.Context, record store.ActorRecord) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.actors[record.ActorID] = record
	return nil
}

type bufferAdapter struct{ s *Store }

// Append adds msg to actorID's buffer. Callers (internal/worker's write
// chain) are responsible for calling Append in the order writes should be
// observed; this method itself does no additional serialization.
func (b bufferAdapter) Append(_ context.Context, actorID string, msg models.BufferMessage) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	b.s.buffers[actorID] = append(b.s.buffers[actorID], msg)
	return nil
}

// Recent returns the last limit buffer items for actorID, oldest first.
func (b bufferAdapter) Recent(_ context.Context, actorID string, limit int) ([]models.BufferMessage, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	all := b.s.buffers[actorID]
	if limit <= 0 || limit >= len(all) {
		out := make([]models.BufferMessage, len(all))
		copy(out, all)
		return out, nil
	}
	out := make([]models.BufferMessage, limit)
	copy(out, all[len(all)-limit:])
	return out, nil
}

type longTermAdapter struct{ s *Store }

func (l *longTermAdapter) Save(_ context.Context, record store.LongTermMemoryRecord) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.longTerm[record.ID] = record
	return nil
}

func (l *longTermAdapter) Get(_ context.Context, id string) (store.LongTermMemoryRecord, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	rec, ok := l.s.longTerm[id]
	if !ok {
		return store.LongTermMemoryRecord{}, fmt.Errorf("long-term memory %s not found", id)
	}
	return rec, nil
}

// Search does a naive substring match over actorID's long-term memory,
// ranked by match position. It gives LongTermMemorySearcher a real, if
// unsophisticated, implementation; a production deployment would swap
// this for a vector-search backend behind the same interface.
func (l *longTermAdapter) Search(_ context.Context, actorID, query string, topK int) ([]store.LongTermMemoryRecord, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	type scored struct {
		rec store.LongTermMemoryRecord
		pos int
	}
	var matches []scored
	q := strings.ToLower(query)
	for _, rec := range l.s.longTerm {
		if rec.ActorID != actorID {
			continue
		}
		pos := strings.Index(strings.ToLower(rec.Text), q)
		if pos < 0 {
			continue
		}
		matches = append(matches, scored{rec: rec, pos: pos})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].pos != matches[j].pos {
			return matches[i].pos < matches[j].pos
		}
		return matches[i].rec.ID < matches[j].rec.ID
	})
	if topK > 0 && topK < len(matches) {
		matches = matches[:topK]
	}
	out := make([]store.LongTermMemoryRecord, len(matches))
	for i, m := range matches {
		out[i] = m.rec
	}
	return out, nil
}
