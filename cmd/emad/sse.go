package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// relayedEvent pairs an actor id with the {kind, content} envelope
// spec.md §6 says is relayed verbatim to external subscribers.
type relayedEvent struct {
	ActorID string           `json:"actor_id"`
	Kind    models.EventKind `json:"kind"`
	Content any              `json:"content"`
}

// sseHub fans a stream of relayedEvents out to every currently connected
// SSE client. There is no buffering, matching spec.md §4.6: a client that
// connects after an event fired never sees it.
type sseHub struct {
	mu   sync.Mutex
	subs map[chan relayedEvent]string // chan -> actorID filter, "" means all
}

func newSSEHub() *sseHub {
	return &sseHub{subs: make(map[chan relayedEvent]string)}
}

func (h *sseHub) subscribe(actorFilter string) chan relayedEvent {
	ch := make(chan relayedEvent, 64)
	h.mu.Lock()
	h.subs[ch] = actorFilter
	h.mu.Unlock()
	return ch
}

func (h *sseHub) unsubscribe(ch chan relayedEvent) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

// broadcast delivers ev to every subscriber whose filter matches, dropping
// it for a subscriber whose channel is full rather than blocking the
// actor's own event bus dispatch.
func (h *sseHub) broadcast(ev relayedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, filter := range h.subs {
		if filter != "" && filter != ev.ActorID {
			continue
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// handleEvents implements the SSE collaborator contract: a client
// subscribes (optionally scoped to one actor_id), then receives every
// relayedEvent published afterward as a "data: <json>\n\n" frame.
func (h *sseHub) handleEvents(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		actorFilter := r.URL.Query().Get("actor_id")
		ch := h.subscribe(actorFilter)
		defer h.unsubscribe(ch)

		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				b, err := json.Marshal(ev)
				if err != nil {
					logger.Error("sse: encode event failed", "error", err)
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", b)
				flusher.Flush()
			}
		}
	}
}
