// Package metrics exposes the actor runtime's Prometheus instrumentation:
// run/step counts, tool execution outcomes, LLM call latency, and
// summarization activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter, histogram, and gauge the runtime emits.
// Construct once at startup and share across ActorWorkers.
type Metrics struct {
	// RunsTotal counts Agent.Run completions by outcome (ok|error).
	RunsTotal *prometheus.CounterVec

	// StepsTotal counts individual Agent run steps.
	StepsTotal prometheus.Counter

	// LLMRequestDuration measures Generate call latency in seconds.
	// Labels: provider, status (success|error)
	LLMRequestDuration *prometheus.HistogramVec

	// LLMTokensTotal tracks reported token usage by provider.
	LLMTokensTotal *prometheus.CounterVec

	// ToolExecutionsTotal counts tool dispatches by name and outcome.
	ToolExecutionsTotal *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution latency in seconds.
	ToolExecutionDuration *prometheus.HistogramVec

	// SummarizationsTotal counts context summarization passes by outcome
	// (llm|fallback).
	SummarizationsTotal *prometheus.CounterVec

	// ActiveActors gauges the number of ActorWorkers created in this
	// process. It is not decremented when a worker goes idle.
	ActiveActors prometheus.Gauge
}

// New creates and registers every metric against the default registry.
// Call once at process startup.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emad_agent_runs_total",
				Help: "Total number of agent runs by outcome",
			},
			[]string{"outcome"},
		),
		StepsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "emad_agent_steps_total",
				Help: "Total number of agent run steps executed",
			},
		),
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emad_llm_request_duration_seconds",
				Help:    "Duration of LLM Generate calls in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "status"},
		),
		LLMTokensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emad_llm_tokens_total",
				Help: "Total tokens reported by the LLM provider",
			},
			[]string{"provider"},
		),
		ToolExecutionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emad_tool_executions_total",
				Help: "Total tool executions by tool name and outcome",
			},
			[]string{"tool_name", "outcome"},
		),
		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emad_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"tool_name"},
		),
		SummarizationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emad_summarizations_total",
				Help: "Total context summarization passes by outcome",
			},
			[]string{"outcome"},
		),
		ActiveActors: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "emad_active_actors",
				Help: "Number of ActorWorkers created in this process",
			},
		),
	}
}

// RecordRun records the outcome of one Agent.Run call.
func (m *Metrics) RecordRun(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

// RecordLLMRequest records one Generate call's latency, status, and token
// usage.
func (m *Metrics) RecordLLMRequest(provider, status string, durationSeconds float64, tokens int) {
	m.LLMRequestDuration.WithLabelValues(provider, status).Observe(durationSeconds)
	if tokens > 0 {
		m.LLMTokensTotal.WithLabelValues(provider).Add(float64(tokens))
	}
}

// RecordToolExecution records one tool dispatch's outcome and latency.
func (m *Metrics) RecordToolExecution(toolName string, success bool, durationSeconds float64) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.ToolExecutionsTotal.WithLabelValues(toolName, outcome).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordSummarization records one context summarization pass, distinguishing
// whether it succeeded via the LLM or fell back to the deterministic
// rendering.
func (m *Metrics) RecordSummarization(usedLLM bool) {
	outcome := "llm"
	if !usedLLM {
		outcome = "fallback"
	}
	m.SummarizationsTotal.WithLabelValues(outcome).Inc()
}
