package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/store"
	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

func TestBufferAdapter_AppendPreservesOrder(t *testing.T) {
	s := New()
	buf := s.Buffers()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		msg := models.BufferMessage{
			Kind: models.BufferUser,
			ID:   string(rune('a' + i)),
			Name: "User",
			Time: time.Now(),
		}
		if err := buf.Append(ctx, "actor-1", msg); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := buf.Recent(ctx, "actor-1", 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for i, msg := range got {
		want := string(rune('a' + i))
		if msg.ID != want {
			t.Fatalf("got[%d].ID = %q, want %q", i, msg.ID, want)
		}
	}
}

func TestBufferAdapter_RecentRespectsLimit(t *testing.T) {
	s := New()
	buf := s.Buffers()
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		buf.Append(ctx, "actor-1", models.BufferMessage{ID: string(rune('0' + i%10))})
	}

	got, err := buf.Recent(ctx, "actor-1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
}

func TestActorAdapter_SaveAndGet(t *testing.T) {
	s := New()
	actors := s.Actors()
	ctx := context.Background()

	if _, err := actors.Get(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing actor")
	}

	rec := store.ActorRecord{ActorID: "a1", UserID: "u1", LastSeen: time.Now()}
	if err := actors.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := actors.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != "u1" {
		t.Fatalf("UserID = %q, want u1", got.UserID)
	}
}

func TestLongTermAdapter_SearchMatchesByActorAndSubstring(t *testing.T) {
	s := New()
	lt := s.LongTerm()
	ctx := context.Background()

	lt.Save(ctx, store.LongTermMemoryRecord{ID: "1", ActorID: "a1", Text: "likes espresso in the morning"})
	lt.Save(ctx, store.LongTermMemoryRecord{ID: "2", ActorID: "a1", Text: "prefers tea at night"})
	lt.Save(ctx, store.LongTermMemoryRecord{ID: "3", ActorID: "a2", Text: "likes espresso too"})

	results, err := lt.Search(ctx, "a1", "espresso", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "1" {
		t.Fatalf("results = %+v, want just record 1", results)
	}
}
