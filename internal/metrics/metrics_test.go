package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// These tests exercise the same counter/histogram shapes New wires up,
// against an isolated registry rather than calling New itself — New
// registers against the default registry, and repeated test runs in the
// same process would panic on duplicate registration.

func TestRecordRunLabelsByOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "test_runs_total", Help: "test"},
		[]string{"outcome"},
	)
	registry.MustRegister(runs)

	m := &Metrics{RunsTotal: runs}
	m.RecordRun(true)
	m.RecordRun(false)
	m.RecordRun(false)

	if got := testutil.ToFloat64(runs.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(runs.WithLabelValues("error")); got != 2 {
		t.Errorf("error count = %v, want 2", got)
	}
}

func TestRecordToolExecutionLabelsByOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "test_tool_executions_total", Help: "test"},
		[]string{"tool_name", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "test_tool_execution_duration_seconds", Help: "test"},
		[]string{"tool_name"},
	)
	registry.MustRegister(counter, duration)

	m := &Metrics{ToolExecutionsTotal: counter, ToolExecutionDuration: duration}
	m.RecordToolExecution("ema_reply", true, 0.02)
	m.RecordToolExecution("ema_reply", false, 0.05)

	if got := testutil.ToFloat64(counter.WithLabelValues("ema_reply", "success")); got != 1 {
		t.Errorf("success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("ema_reply", "error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(duration); got != 1 {
		t.Errorf("duration label combinations = %d, want 1", got)
	}
}

func TestRecordSummarizationLabelsByOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "test_summarizations_total", Help: "test"},
		[]string{"outcome"},
	)
	registry.MustRegister(counter)

	m := &Metrics{SummarizationsTotal: counter}
	m.RecordSummarization(true)
	m.RecordSummarization(false)

	if got := testutil.ToFloat64(counter.WithLabelValues("llm")); got != 1 {
		t.Errorf("llm count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("fallback")); got != 1 {
		t.Errorf("fallback count = %v, want 1", got)
	}
}
