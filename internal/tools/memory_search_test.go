package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/store"
)

type fakeSearcher struct {
	records []store.LongTermMemoryRecord
	err     error
	gotActor, gotQuery string
	gotTopK  int
}

func (f *fakeSearcher) Search(_ context.Context, actorID, query string, topK int) ([]store.LongTermMemoryRecord, error) {
	f.gotActor, f.gotQuery, f.gotTopK = actorID, query, topK
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func TestMemorySearchTool_Name(t *testing.T) {
	tool := NewMemorySearchTool("actor-1", &fakeSearcher{})
	if got := tool.Name(); got != "memory_search" {
		t.Fatalf("Name() = %q", got)
	}
}

func TestMemorySearchTool_ExecutePassesActorAndDefaultsTopK(t *testing.T) {
	fs := &fakeSearcher{records: []store.LongTermMemoryRecord{
		{ID: "1", ActorID: "actor-1", Text: "likes coffee", Time: time.Unix(0, 0)},
	}}
	tool := NewMemorySearchTool("actor-1", fs)

	result := tool.Execute(context.Background(), map[string]any{"query": "coffee"})
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if fs.gotActor != "actor-1" || fs.gotQuery != "coffee" {
		t.Fatalf("search called with actor=%q query=%q", fs.gotActor, fs.gotQuery)
	}
	if fs.gotTopK != defaultMemorySearchTopK {
		t.Fatalf("top_k = %d, want default %d", fs.gotTopK, defaultMemorySearchTopK)
	}

	var records []store.LongTermMemoryRecord
	if err := json.Unmarshal([]byte(result.Content), &records); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(records) != 1 || records[0].Text != "likes coffee" {
		t.Fatalf("records = %+v", records)
	}
}

func TestMemorySearchTool_ExecuteHonorsExplicitTopK(t *testing.T) {
	fs := &fakeSearcher{}
	tool := NewMemorySearchTool("actor-1", fs)

	tool.Execute(context.Background(), map[string]any{"query": "x", "top_k": float64(3)})
	if fs.gotTopK != 3 {
		t.Fatalf("top_k = %d, want 3", fs.gotTopK)
	}
}

func TestMemorySearchTool_ExecuteFailsWithoutQuery(t *testing.T) {
	tool := NewMemorySearchTool("actor-1", &fakeSearcher{})
	result := tool.Execute(context.Background(), map[string]any{})
	if result.Success {
		t.Fatal("expected failure for empty query")
	}
}

func TestMemorySearchTool_ExecuteFailsOnSearchError(t *testing.T) {
	tool := NewMemorySearchTool("actor-1", &fakeSearcher{err: errors.New("store down")})
	result := tool.Execute(context.Background(), map[string]any{"query": "x"})
	if result.Success {
		t.Fatal("expected failure when search returns an error")
	}
}
