package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/agent"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/config"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/eventbus"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/llm"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/metrics"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/store"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/telemetry"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/tokenizer"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/tools"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/worker"
	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// defaultSystemPromptTemplate seeds every new actor's conversation. The
// {MEMORY_BUFFER} placeholder is expanded per spec.md §4.4 on every run.
const defaultSystemPromptTemplate = `You are EMA, a helpful conversational assistant.

Always respond to the user by calling the ema_reply tool exactly once per
turn with your reasoning, tone, any follow-up action, and the response
text. Use memory_search when recalling something from earlier than the
recent window below may help.

Recent history:
{MEMORY_BUFFER}
`

// actorManager owns one ActorWorker per (userID, actorID) pair, creating
// them lazily on first Work call. It is the piece spec.md scopes out of
// the core ("persistent stores for actors... only the interfaces the core
// consumes") but that a runnable binary still needs.
type actorManager struct {
	cfg    *config.Config
	logger *slog.Logger

	llmClient llm.Client
	metrics   *metrics.Metrics
	tracer    *telemetry.Tracer

	actorDB  store.ActorDB
	buffers  store.ShortTermMemoryDB
	longTerm store.LongTermMemoryDB
	searcher store.LongTermMemorySearcher

	hub *sseHub

	mu      sync.Mutex
	workers map[string]*worker.ActorWorker
}

func newActorManager(cfg *config.Config, logger *slog.Logger, llmClient llm.Client, m *metrics.Metrics, tracer *telemetry.Tracer, actorDB store.ActorDB, buffers store.ShortTermMemoryDB, longTerm store.LongTermMemoryDB, searcher store.LongTermMemorySearcher, hub *sseHub) *actorManager {
	return &actorManager{
		cfg:       cfg,
		logger:    logger,
		llmClient: llmClient,
		metrics:   m,
		tracer:    tracer,
		actorDB:   actorDB,
		buffers:   buffers,
		longTerm:  longTerm,
		searcher:  searcher,
		hub:       hub,
		workers:   make(map[string]*worker.ActorWorker),
	}
}

func actorKey(userID, actorID string) string {
	return userID + ":" + actorID
}

// submit validates and routes one Work call per spec.md §6's input
// endpoint contract, creating the actor's worker on first use.
func (m *actorManager) submit(ctx context.Context, userID, actorID string, inputs []models.Content) error {
	return m.workerFor(userID, actorID).Work(ctx, inputs)
}

func (m *actorManager) workerFor(userID, actorID string) *worker.ActorWorker {
	key := actorKey(userID, actorID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.workers[key]; ok {
		return w
	}

	if err := m.actorDB.Save(context.Background(), store.ActorRecord{ActorID: actorID, UserID: userID}); err != nil {
		m.logger.Warn("save actor record failed", "actor_id", actorID, "error", err)
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewReplyTool())
	if m.searcher != nil {
		registry.Register(tools.NewMemorySearchTool(actorID, m.searcher))
	}

	events := eventbus.New()
	events.SubscribeAll(func(e models.Event) {
		relayed := e.ToRelayed()
		m.hub.broadcast(relayedEvent{ActorID: actorID, Kind: relayed.Kind, Content: relayed.Content})
	})

	// Built fresh per actor, not shared process-wide, so OnFallback can
	// publish to this actor's own bus without racing against every other
	// actor's fallback events.
	estimator := tokenizer.New()
	estimator.OnFallback = func(err error) {
		m.logger.Warn("token estimation fell back to character heuristic", "actor_id", actorID, "error", err)
		events.Publish(models.Event{
			Kind: models.EventTokenEstimationFallbacked,
			TokenEstimationFallbacked: &models.TokenEstimationFallbackedPayload{Error: err.Error()},
		})
	}

	agentConfig := agent.Config{MaxSteps: m.cfg.Agent.MaxSteps, TokenLimit: m.cfg.Agent.TokenLimit}
	ag := agent.New(agentConfig, m.llmClient, registry, events, estimator)
	if m.metrics != nil {
		ag = ag.WithMetrics(m.metrics, m.cfg.LLM.Provider)
	}
	if m.tracer != nil {
		ag = ag.WithTracer(m.tracer)
	}

	w := worker.New(worker.Config{
		ActorID:              actorID,
		UserID:               userID,
		SystemPromptTemplate: defaultSystemPromptTemplate,
		BaseTools:            registry.All(),
	}, ag, m.buffers, events, m.logger.With("actor_id", actorID))

	m.workers[key] = w
	if m.metrics != nil {
		m.metrics.ActiveActors.Inc()
	}
	return w
}
