// Package worker implements the ActorWorker: a per-actor, input-serialized,
// preemptable driver that feeds batched user input into an Agent run and
// persists a short-term buffer of what happened.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/agent"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/eventbus"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/store"
	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// Config bounds one ActorWorker.
type Config struct {
	ActorID              string
	UserID               string
	SystemPromptTemplate string
	BaseTools            []models.Tool
}

// ActorWorker owns exactly one Agent and drives it per spec.md §4.4: a
// single-flight queue that serializes user input, preempting an in-flight
// run when new input arrives and deciding whether to resume or restart
// based on whether a reply already landed.
type ActorWorker struct {
	mu sync.Mutex

	config Config
	agent  *agent.Agent
	events *eventbus.Bus
	logger *slog.Logger

	buffers store.ShortTermMemoryDB
	chain   *BufferChain

	status           models.ActorStatus
	queue            []models.BufferMessage
	agentState       *models.AgentState
	hasReplyThisRun  bool
	resumeAfterAbort bool
	processing       bool
	cancel           context.CancelFunc
	runDone          chan struct{}
}

// New builds an idle ActorWorker. ag is the Agent this worker drives;
// buffers is where Work's input and the agent's replies are persisted.
func New(config Config, ag *agent.Agent, buffers store.ShortTermMemoryDB, events *eventbus.Bus, logger *slog.Logger) *ActorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &ActorWorker{
		config:  config,
		agent:   ag,
		events:  events,
		logger:  logger,
		buffers: buffers,
		chain:   NewBufferChain(logger),
		status:  models.ActorIdle,
	}
	if events != nil {
		events.Subscribe(models.EventEmaReplyReceived, w.onReplyReceived)
	}
	return w
}

// Status reports the worker's current coarse status.
func (w *ActorWorker) Status() models.ActorStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Work validates and enqueues a batch of end-user input, preempting the
// in-flight run if one exists and waiting for it to settle before
// returning — matching spec.md §4.4 step 4's "await the current run's
// promise" requirement.
func (w *ActorWorker) Work(ctx context.Context, inputs []models.Content) error {
	if len(inputs) == 0 {
		return &InputValidationError{Reason: "empty inputs"}
	}
	for _, c := range inputs {
		if c.Kind != models.ContentText {
			return unsupportedInputError(c.Kind)
		}
	}

	msg := models.BufferMessage{
		Kind:     models.BufferUser,
		ID:       uuid.NewString(),
		Name:     "User",
		Contents: inputs,
		Time:     time.Now(),
	}
	w.chain.Enqueue(func() error {
		return w.buffers.Append(context.Background(), w.config.ActorID, msg)
	})

	w.mu.Lock()
	w.queue = append(w.queue, msg)
	nonIdle := w.status != models.ActorIdle
	if nonIdle {
		w.resumeAfterAbort = !w.hasReplyThisRun
	}
	cancel := w.cancel
	runDone := w.runDone
	w.mu.Unlock()

	if nonIdle {
		if cancel != nil {
			cancel()
		}
		if runDone != nil {
			<-runDone
		}
		return nil
	}

	go w.processQueue()
	return nil
}

// onReplyReceived fires synchronously on the event bus from within the
// Agent's Run call, so it must not block: the buffer write it triggers
// goes through the chain, not inline.
func (w *ActorWorker) onReplyReceived(e models.Event) {
	if e.EmaReplyReceived == nil {
		return
	}
	w.mu.Lock()
	w.hasReplyThisRun = true
	w.mu.Unlock()

	msg := models.BufferMessage{
		Kind:     models.BufferActor,
		ID:       uuid.NewString(),
		Name:     "EMA",
		Contents: []models.Content{models.TextContent(e.EmaReplyReceived.Reply.JSON())},
		Time:     time.Now(),
	}
	w.chain.Enqueue(func() error {
		return w.buffers.Append(context.Background(), w.config.ActorID, msg)
	})
}

// processQueue is the single-flight serial driver: only one goroutine
// ever runs its body at a time, guarded by the processing flag exactly as
// spec.md §4.4 describes.
func (w *ActorWorker) processQueue() {
	w.mu.Lock()
	if w.processing {
		w.mu.Unlock()
		return
	}
	w.processing = true
	w.mu.Unlock()

	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.processing = false
			w.mu.Unlock()
			return
		}

		w.status = models.ActorPreparing
		batch := w.queue
		w.queue = nil

		var state *models.AgentState
		if w.resumeAfterAbort && w.agentState != nil {
			state = w.agentState
			for _, b := range batch {
				state.Messages = append(state.Messages, b.ToUserMessage())
			}
		} else {
			messages := make([]models.Message, len(batch))
			for i, b := range batch {
				messages[i] = b.ToUserMessage()
			}
			recent, err := w.buffers.Recent(context.Background(), w.config.ActorID, bufferWindow)
			if err != nil {
				w.logger.Error("load buffer window failed", "actor_id", w.config.ActorID, "error", err)
			}
			state = &models.AgentState{
				SystemPrompt: buildSystemPrompt(w.config.SystemPromptTemplate, recent),
				Messages:     messages,
				Tools:        w.config.BaseTools,
			}
		}
		w.resumeAfterAbort = false
		w.hasReplyThisRun = false
		w.status = models.ActorRunning
		w.agentState = state

		runCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		w.cancel = cancel
		w.runDone = done
		w.mu.Unlock()

		w.agent.Run(runCtx, state)
		cancel()
		close(done)

		w.mu.Lock()
		w.cancel = nil
		w.runDone = nil
		if !w.resumeAfterAbort {
			w.agentState = nil
		}
		if len(w.queue) == 0 && !w.resumeAfterAbort {
			w.status = models.ActorIdle
		}
		w.mu.Unlock()
	}
}
