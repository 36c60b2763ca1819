package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/agent"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/eventbus"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/store/memory"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/tools"
	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

type charEstimator struct{}

func (charEstimator) EstimateMessages(messages []models.Message) int {
	n := 0
	for _, m := range messages {
		if um, ok := m.(models.UserMessage); ok {
			n += len(models.JoinedText(um.Contents))
		}
	}
	return n
}

// scriptedLLM hands each Generate call to fn, which decides the response
// and can observe/block on ctx to simulate an in-flight call a test
// preempts.
type scriptedLLM struct {
	mu sync.Mutex
	n  int
	fn func(call int, ctx context.Context, messages []models.Message) (models.LLMResponse, error)
}

func (s *scriptedLLM) Generate(ctx context.Context, messages []models.Message, _ []models.Tool, _ string) (models.LLMResponse, error) {
	s.mu.Lock()
	call := s.n
	s.n++
	s.mu.Unlock()
	return s.fn(call, ctx, messages)
}

func replyResponse(text string) models.LLMResponse {
	return models.LLMResponse{Message: models.ModelMessage{
		ToolCalls: []models.ToolCall{{
			ID: "c1", Name: models.ReplyToolName,
			Args: map[string]any{"think": "t", "expression": "e", "action": "a", "response": text},
		}},
	}}
}

func finalResponse() models.LLMResponse {
	return models.LLMResponse{Message: models.ModelMessage{}, FinishReason: "stop"}
}

func waitForStatus(t *testing.T, w *ActorWorker, want models.ActorStatus, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if w.Status() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("worker status never reached %v, still %v", want, w.Status())
}

func newTestWorker(t *testing.T, llmClient *scriptedLLM) (*ActorWorker, *eventbus.Bus) {
	t.Helper()
	registry := tools.NewRegistry()
	registry.Register(tools.NewReplyTool())
	bus := eventbus.New()
	ag := agent.New(agent.Config{MaxSteps: 10, TokenLimit: 100000}, llmClient, registry, bus, charEstimator{})
	store := memory.New()
	w := New(Config{
		ActorID:              "actor-1",
		UserID:               "user-1",
		SystemPromptTemplate: "Recent:\n{MEMORY_BUFFER}\n--",
		BaseTools:            registry.All(),
	}, ag, store.Buffers(), bus, nil)
	return w, bus
}

func TestActorWorker_SingleTurnReplyReachesIdle(t *testing.T) {
	llmClient := &scriptedLLM{fn: func(call int, ctx context.Context, messages []models.Message) (models.LLMResponse, error) {
		if call == 0 {
			return replyResponse("hi"), nil
		}
		return finalResponse(), nil
	}}
	w, _ := newTestWorker(t, llmClient)

	if err := w.Work(context.Background(), []models.Content{models.TextContent("hello")}); err != nil {
		t.Fatalf("Work: %v", err)
	}

	waitForStatus(t, w, models.ActorIdle, time.Second)
}

func TestActorWorker_WorkRejectsEmptyInput(t *testing.T) {
	w, _ := newTestWorker(t, &scriptedLLM{fn: func(int, context.Context, []models.Message) (models.LLMResponse, error) {
		return finalResponse(), nil
	}})
	err := w.Work(context.Background(), nil)
	if err == nil {
		t.Fatal("expected InputValidationError for empty input")
	}
}

func TestActorWorker_WorkRejectsNonTextContent(t *testing.T) {
	w, _ := newTestWorker(t, &scriptedLLM{fn: func(int, context.Context, []models.Message) (models.LLMResponse, error) {
		return finalResponse(), nil
	}})
	err := w.Work(context.Background(), []models.Content{{Kind: "image", Text: "x"}})
	if err == nil {
		t.Fatal("expected InputValidationError for non-text content")
	}
}

// TestActorWorker_PreemptionWithoutReply mirrors scenario S2: input
// arrives while the first Generate call is still in flight and no reply
// has landed, so the aborted run's AgentState is reused and both inputs
// end up as UserMessages in the resumed run.
func TestActorWorker_PreemptionWithoutReply(t *testing.T) {
	started := make(chan struct{})
	var secondCallMessages []models.Message
	var mu sync.Mutex

	llmClient := &scriptedLLM{fn: func(call int, ctx context.Context, messages []models.Message) (models.LLMResponse, error) {
		if call == 0 {
			close(started)
			<-ctx.Done()
			return models.LLMResponse{}, ctx.Err()
		}
		mu.Lock()
		secondCallMessages = messages
		mu.Unlock()
		return finalResponse(), nil
	}}
	w, _ := newTestWorker(t, llmClient)

	if err := w.Work(context.Background(), []models.Content{models.TextContent("first")}); err != nil {
		t.Fatalf("Work: %v", err)
	}
	<-started

	if err := w.Work(context.Background(), []models.Content{models.TextContent("second")}); err != nil {
		t.Fatalf("Work: %v", err)
	}

	waitForStatus(t, w, models.ActorIdle, time.Second)

	mu.Lock()
	defer mu.Unlock()
	var userTexts []string
	for _, m := range secondCallMessages {
		if um, ok := m.(models.UserMessage); ok {
			userTexts = append(userTexts, models.JoinedText(um.Contents))
		}
	}
	if len(userTexts) != 2 || userTexts[0] != "first" || userTexts[1] != "second" {
		t.Fatalf("resumed run messages = %v, want [first second]", userTexts)
	}
}

// TestActorWorker_PreemptionAfterReply mirrors scenario S3: a reply has
// already landed by the time new input arrives, so a fresh AgentState is
// built from the follow-up input alone rather than merging with the
// first run's history.
func TestActorWorker_PreemptionAfterReply(t *testing.T) {
	secondCallStarted := make(chan struct{})
	var thirdCallMessages []models.Message
	var mu sync.Mutex

	llmClient := &scriptedLLM{fn: func(call int, ctx context.Context, messages []models.Message) (models.LLMResponse, error) {
		switch call {
		case 0:
			return replyResponse("hi"), nil
		case 1:
			close(secondCallStarted)
			<-ctx.Done()
			return models.LLMResponse{}, ctx.Err()
		default:
			mu.Lock()
			thirdCallMessages = messages
			mu.Unlock()
			return finalResponse(), nil
		}
	}}
	w, _ := newTestWorker(t, llmClient)

	if err := w.Work(context.Background(), []models.Content{models.TextContent("first")}); err != nil {
		t.Fatalf("Work: %v", err)
	}
	<-secondCallStarted

	if err := w.Work(context.Background(), []models.Content{models.TextContent("follow-up")}); err != nil {
		t.Fatalf("Work: %v", err)
	}

	waitForStatus(t, w, models.ActorIdle, time.Second)

	mu.Lock()
	defer mu.Unlock()
	var userTexts []string
	for _, m := range thirdCallMessages {
		if um, ok := m.(models.UserMessage); ok {
			userTexts = append(userTexts, models.JoinedText(um.Contents))
		}
	}
	if len(userTexts) != 1 || userTexts[0] != "follow-up" {
		t.Fatalf("fresh run messages = %v, want [follow-up] only", userTexts)
	}
}

func TestRenderBuffer_ExactFormat(t *testing.T) {
	t1 := mustParseTime("2024-01-02 03:04:05")
	t2 := mustParseTime("2024-01-02 03:04:10")
	buffer := []models.BufferMessage{
		{Kind: models.BufferUser, ID: "1", Name: "Alice", Contents: []models.Content{models.TextContent("hi")}, Time: t1},
		{Kind: models.BufferActor, ID: "7", Name: "EMA", Contents: []models.Content{models.TextContent("{...json...}")}, Time: t2},
	}
	got := buildSystemPrompt("Recent:\n{MEMORY_BUFFER}\n--", buffer)
	want := "Recent:\n- [2024-01-02 03:04:05][role:user][id:1][name:Alice] hi\n- [2024-01-02 03:04:10][role:actor][id:7][name:EMA] {...json...}\n--"
	if got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestRenderBuffer_EmptyIsNone(t *testing.T) {
	got := buildSystemPrompt("Recent:\n{MEMORY_BUFFER}\n--", nil)
	if got != "Recent:\nNone.\n--" {
		t.Fatalf("got %q", got)
	}
}

func mustParseTime(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}
