// Package eventbus implements the typed, name-indexed publish/subscribe bus
// the Agent and ActorWorker use to stream lifecycle events. Dispatch is a
// synchronous, subscription-ordered fan-out; a panicking handler is
// isolated so it cannot block delivery to the handlers after it.
package eventbus

import (
	"log/slog"
	"sync"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// Handler receives one Event. Implementations must not block for long;
// slow handlers should hand off to their own goroutine.
type Handler func(models.Event)

// Bus is a synchronous, per-kind publish/subscribe bus. There is no
// buffering: events published before a subscription exists are simply
// never seen by it. That is by design — the SSE collaborator this core
// serves subscribes before triggering any work.
type Bus struct {
	mu   sync.RWMutex
	subs map[models.EventKind][]*subscription
	next uint64
}

type subscription struct {
	id      uint64
	handler Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[models.EventKind][]*subscription)}
}

// Subscribe registers handler for one event kind. Handlers for the same
// kind fire in the order they were subscribed. The returned func detaches
// the handler; it is safe to call more than once.
func (b *Bus) Subscribe(kind models.EventKind, handler Handler) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[kind] = append(b.subs[kind], &subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[kind]
			for i, s := range list {
				if s.id == id {
					b.subs[kind] = append(list[:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

// SubscribeAll registers handler for every event kind defined at call time
// plus any published afterward under a kind this bus has not seen yet is
// still delivered, since dispatch keys by the kind on the event itself.
// Used by collaborators (e.g. an SSE relay) that forward events verbatim.
func (b *Bus) SubscribeAll(handler Handler) (unsubscribe func()) {
	return b.Subscribe(anyKind, handler)
}

// anyKind is a sentinel under which SubscribeAll handlers are stored;
// Publish always dispatches to it in addition to the event's own kind.
const anyKind = models.EventKind("*")

// Publish dispatches event synchronously to every handler subscribed to
// its kind, in subscription order, then to every SubscribeAll handler. A
// handler that panics is recovered and logged; dispatch continues to the
// remaining handlers.
func (b *Bus) Publish(event models.Event) {
	b.mu.RLock()
	direct := append([]*subscription(nil), b.subs[event.Kind]...)
	wildcard := append([]*subscription(nil), b.subs[anyKind]...)
	b.mu.RUnlock()

	for _, s := range direct {
		dispatch(s.handler, event)
	}
	for _, s := range wildcard {
		dispatch(s.handler, event)
	}
}

func dispatch(handler Handler, event models.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("eventbus: handler panicked", "kind", event.Kind, "panic", rec)
		}
	}()
	handler(event)
}

// Count returns the number of handlers currently subscribed to kind
// (excluding SubscribeAll handlers).
func (b *Bus) Count(kind models.EventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
