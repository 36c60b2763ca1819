// Package agent implements the step-bounded LLM-call/tool-execution state
// machine: one Run drives a conversation to a reply-less termination,
// cancellation, or step exhaustion.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/contextmgr"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/eventbus"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/llm"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/metrics"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/telemetry"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/tools"
	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// Config bounds one Run. MaxSteps of 0 is valid and means the run
// terminates immediately without calling the LLM at all.
type Config struct {
	MaxSteps   int
	TokenLimit int
}

// DefaultConfig returns sane bounds for a single-actor conversation.
func DefaultConfig() Config {
	return Config{MaxSteps: 25, TokenLimit: 100000}
}

// Agent drives one conversation. It owns a ContextManager and holds
// non-owning handles to an LLMClient and a tool registry; Run is not
// safe to call concurrently on the same Agent (ActorWorker's single-flight
// driver already guarantees this).
type Agent struct {
	config    Config
	llm       llm.Client
	registry  *tools.Registry
	events    *eventbus.Bus
	estimator contextmgr.Estimator
	metrics   *metrics.Metrics
	tracer    *telemetry.Tracer
	provider  string
}

// New builds an Agent. registry resolves tool calls by name; events may
// be nil, in which case Run proceeds without emitting anything.
func New(config Config, llmClient llm.Client, registry *tools.Registry, events *eventbus.Bus, estimator contextmgr.Estimator) *Agent {
	if config.MaxSteps < 0 {
		config.MaxSteps = 0
	}
	return &Agent{config: config, llm: llmClient, registry: registry, events: events, estimator: estimator}
}

// WithMetrics attaches a Metrics sink and the provider name Generate calls
// are labeled with. Without one, Run records nothing.
func (a *Agent) WithMetrics(m *metrics.Metrics, provider string) *Agent {
	a.metrics = m
	a.provider = provider
	return a
}

// WithTracer attaches a Tracer. Without one, Run creates no spans.
func (a *Agent) WithTracer(t *telemetry.Tracer) *Agent {
	a.tracer = t
	return a
}

// Run drives state to completion. state.Messages/SystemPrompt/Tools seed
// the ContextManager; the caller (ActorWorker) owns state's lifetime and
// decides whether to discard or resume it afterward. ctx is the
// cancellation token: an Abort from the ActorWorker cancels it, which
// Run observes at the next Generate call boundary.
func (a *Agent) Run(ctx context.Context, state *models.AgentState) {
	cm := contextmgr.New(a.config.TokenLimit, state.Tools, a.estimator, a.llm, a.events).WithMetrics(a.metrics)
	cm.SetMessages(state.Messages)

	for step := 1; step <= a.config.MaxSteps; step++ {
		if err := cm.SummarizeIfNeeded(ctx); err != nil {
			a.emitRunFinished(false, "", err.Error())
			a.recordRun(false)
			state.Messages = cm.Messages()
			return
		}

		stepCtx, stepSpan := a.startStep(ctx, step, a.config.MaxSteps)

		a.emitStepStarted(step, a.config.MaxSteps)
		if a.metrics != nil {
			a.metrics.StepsTotal.Inc()
		}

		genCtx, genSpan := a.startGenerate(stepCtx)
		start := time.Now()
		response, err := a.llm.Generate(genCtx, cm.Messages(), cm.Tools(), state.SystemPrompt)
		a.recordGenerate(err == nil, time.Since(start).Seconds(), response.TotalTokens)
		a.endSpan(genSpan, err)
		if err != nil {
			a.endSpan(stepSpan, err)
			state.Messages = cm.Messages()
			if llm.IsCancellation(err) {
				a.emitRunFinished(false, "cancelled", "")
				a.recordRun(false)
				return
			}
			var retryExhausted *llm.RetryExhaustedError
			if errors.As(err, &retryExhausted) {
				a.emitRunFinished(false, "", retryExhausted.Error())
				a.recordRun(false)
				return
			}
			a.emitRunFinished(false, "", err.Error())
			a.recordRun(false)
			return
		}

		cm.UpdateApiTokens(response)
		cm.AddModel(response)
		a.emitLlmResponseReceived(response)

		if len(response.Message.ToolCalls) == 0 {
			a.endSpan(stepSpan, nil)
			a.emitRunFinished(true, response.FinishReason, "")
			a.recordRun(true)
			state.Messages = cm.Messages()
			return
		}

		for _, call := range response.Message.ToolCalls {
			tool, ok := a.registry.Get(call.Name)
			a.emitToolCallStarted(call, tool, ok)
			toolCtx, toolSpan := a.startToolExecution(stepCtx, call.Name)
			toolStart := time.Now()
			result := a.dispatchResolved(toolCtx, tool, ok, call)
			if a.metrics != nil {
				a.metrics.RecordToolExecution(call.Name, result.Success, time.Since(toolStart).Seconds())
			}
			if !result.Success {
				a.endSpan(toolSpan, fmt.Errorf("%s", result.Error))
			} else {
				a.endSpan(toolSpan, nil)
			}

			if call.Name == models.ReplyToolName && result.Success {
				reply, parseErr := models.ParseReply(result.Content)
				if parseErr == nil {
					a.emitReplyReceived(reply)
				}
				result.Content = ""
			}

			a.emitToolCallFinished(result.Success, call.ID, call.Name, result)
			cm.AddTool(result, call.Name, call.ID)
		}

		state.Messages = cm.Messages()
	}

	a.emitRunFinished(false, "", fmt.Sprintf("Task couldn't be completed after %d steps", a.config.MaxSteps))
	a.recordRun(false)
}

func (a *Agent) recordRun(ok bool) {
	if a.metrics != nil {
		a.metrics.RecordRun(ok)
	}
}

func (a *Agent) recordGenerate(ok bool, durationSeconds float64, tokens int) {
	if a.metrics == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	a.metrics.RecordLLMRequest(a.provider, status, durationSeconds, tokens)
}

// dispatchResolved invokes a tool call the caller has already resolved
// against the registry, translating "unknown tool" and any panic during
// Execute into a failed ToolResult rather than letting either propagate
// out of Run. The caller resolves the tool itself so it can also use the
// resolution to order emitToolCallStarted's args.
func (a *Agent) dispatchResolved(ctx context.Context, tool models.Tool, ok bool, call models.ToolCall) models.ToolResult {
	if !ok {
		return models.NewToolFailure((&UnknownToolError{Name: call.Name}).Error())
	}

	if err := tools.ValidateArgs(tool, call.Args); err != nil {
		return models.NewToolFailure(err.Error())
	}

	return a.safeExecute(ctx, tool, call.Args)
}

// safeExecute recovers from a panicking Tool.Execute and reports it the
// same way a well-behaved tool reports any other failure: inside the
// ToolResult, never as a propagated panic.
func (a *Agent) safeExecute(ctx context.Context, tool models.Tool, args map[string]any) (result models.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			result = models.NewToolFailure((&ToolExecutionError{
				ToolName: tool.Name(),
				Message:  fmt.Sprint(r),
				Stack:    "(not captured)",
			}).Error())
		}
	}()
	return tool.Execute(ctx, args)
}

