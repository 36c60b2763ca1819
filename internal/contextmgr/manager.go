// Package contextmgr holds the token-budgeted conversation store the Agent
// drives: message history, the tool set handed to LLMClient.Generate, and
// the automatic summarization protocol that keeps both bounded.
package contextmgr

import (
	"context"
	"sync"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/eventbus"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/llm"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/metrics"
	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// Estimator is the subset of *tokenizer.Estimator the ContextManager
// needs. Declared here so tests can supply a deterministic fake instead
// of depending on the real BPE tables.
type Estimator interface {
	EstimateMessages(messages []models.Message) int
}

// Manager is the ContextManager: an ordered message store plus the
// token-gating and summarization machinery that keeps it within
// tokenLimit. It is mutated only from within the Agent's run loop — no
// external synchronization is attempted beyond what that single-writer
// assumption needs.
type Manager struct {
	mu sync.Mutex

	messages  []models.Message
	tools     []models.Tool
	toolIndex map[string]models.Tool

	tokenLimit         int
	apiTotalTokens      int
	skipNextTokenCheck bool

	estimator  Estimator
	llmClient  llm.Client
	events     *eventbus.Bus
	metrics    *metrics.Metrics
}

// New builds a ContextManager seeded with tools and bounded by tokenLimit.
// llmClient is used only for the round-summary sub-call; events may be nil,
// in which case summarization still runs but emits nothing.
func New(tokenLimit int, tools []models.Tool, estimator Estimator, llmClient llm.Client, events *eventbus.Bus) *Manager {
	idx := make(map[string]models.Tool, len(tools))
	for _, t := range tools {
		idx[t.Name()] = t
	}
	return &Manager{
		tools:      tools,
		toolIndex:  idx,
		tokenLimit: tokenLimit,
		estimator:  estimator,
		llmClient:  llmClient,
		events:     events,
	}
}

// Messages returns a snapshot of the current message list, in submission
// order.
func (m *Manager) Messages() []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Tools returns the tool set this context hands to LLMClient.Generate.
func (m *Manager) Tools() []models.Tool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Tool, len(m.tools))
	copy(out, m.tools)
	return out
}

// SetMessages replaces the message list wholesale, used by the Agent when
// resuming an AgentState built elsewhere (ActorWorker's preemption path).
func (m *Manager) SetMessages(messages []models.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = messages
}

// AddUser appends a user turn.
func (m *Manager) AddUser(contents []models.Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, models.UserMessage{Contents: contents})
}

// AddModel appends the model's turn.
func (m *Manager) AddModel(response models.LLMResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, response.Message)
}

// AddTool appends the outcome of one tool call.
func (m *Manager) AddTool(result models.ToolResult, name, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, models.ToolMessage{Name: name, ID: id, Result: result})
}

// UpdateApiTokens overwrites the last-known API-reported token count, but
// only when the provider actually reported one; a provider that doesn't
// report totals (TotalTokens == 0) must not silently reset the estimate.
func (m *Manager) UpdateApiTokens(response models.LLMResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if response.TotalTokens > 0 {
		m.apiTotalTokens = response.TotalTokens
	}
}

// EstimateTokens returns the local BPE-based token estimate for the
// current message list. Deterministic for a fixed message list; does not
// mutate state.
func (m *Manager) EstimateTokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.estimator.EstimateMessages(m.messages)
}

// WithMetrics attaches a Metrics sink. Without one, summarization records
// nothing.
func (m *Manager) WithMetrics(metricsSink *metrics.Metrics) *Manager {
	m.metrics = metricsSink
	return m
}

// SummarizeIfNeeded runs the summarization protocol described in
// summarize.go. It is the only ContextManager operation that can block
// (it may make an LLM call). The returned error is always nil: a failed
// summary call falls back to the deterministic round rendering.
func (m *Manager) SummarizeIfNeeded(ctx context.Context) error {
	return m.summarizeIfNeeded(ctx)
}
