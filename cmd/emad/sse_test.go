package main

import (
	"testing"
	"time"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

func TestSSEHubBroadcastUnfiltered(t *testing.T) {
	hub := newSSEHub()
	ch := hub.subscribe("")
	defer hub.unsubscribe(ch)

	hub.broadcast(relayedEvent{ActorID: "a1", Kind: models.EventRunFinished})

	select {
	case ev := <-ch:
		if ev.ActorID != "a1" {
			t.Fatalf("got actor id %q, want a1", ev.ActorID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast event")
	}
}

func TestSSEHubBroadcastFiltersByActor(t *testing.T) {
	hub := newSSEHub()
	ch := hub.subscribe("a1")
	defer hub.unsubscribe(ch)

	hub.broadcast(relayedEvent{ActorID: "a2", Kind: models.EventRunFinished})

	select {
	case ev := <-ch:
		t.Fatalf("expected no event for a filtered subscriber, got %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}

	hub.broadcast(relayedEvent{ActorID: "a1", Kind: models.EventRunFinished})
	select {
	case ev := <-ch:
		if ev.ActorID != "a1" {
			t.Fatalf("got actor id %q, want a1", ev.ActorID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for matching broadcast event")
	}
}

func TestSSEHubBroadcastDropsWhenFull(t *testing.T) {
	hub := newSSEHub()
	ch := hub.subscribe("")
	defer hub.unsubscribe(ch)

	// Fill the channel's buffer past capacity; broadcast must not block.
	for i := 0; i < 100; i++ {
		hub.broadcast(relayedEvent{ActorID: "a1", Kind: models.EventStepStarted})
	}
}

func TestActorKeyIsStableAndDistinct(t *testing.T) {
	if actorKey("u1", "a1") != actorKey("u1", "a1") {
		t.Fatal("actorKey should be deterministic for the same inputs")
	}
	if actorKey("u1", "a1") == actorKey("u2", "a1") {
		t.Fatal("actorKey should distinguish different users")
	}
}
