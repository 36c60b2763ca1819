// Package telemetry wraps the OpenTelemetry SDK with the handful of spans
// the actor runtime cares about: one per Agent step, one per Generate call,
// one per tool execution.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Tracer issues spans for one service. Without a configured exporter,
// spans are still created and propagated through context (so
// parent/child relationships and span IDs work) but nothing is shipped
// anywhere — the same no-op-exporter shape the SDK uses when telemetry
// is disabled by configuration rather than by code path.
type Tracer struct {
	tracer trace.Tracer
}

// New builds a Tracer named serviceName, backed by a TracerProvider with no
// exporter attached. Call SetGlobalProvider if this process should also
// export spans created outside this package.
func New(serviceName string) *Tracer {
	provider := sdktrace.NewTracerProvider()
	return &Tracer{tracer: provider.Tracer(serviceName)}
}

// Start begins a span named name as a child of any span already in ctx.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return t.tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed and attaches err, if err is non-nil.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// StartStep begins the span covering one Agent run step.
func (t *Tracer) StartStep(ctx context.Context, step, maxSteps int) (context.Context, trace.Span) {
	return t.Start(ctx, "agent.step",
		attribute.Int("agent.step", step),
		attribute.Int("agent.max_steps", maxSteps),
	)
}

// StartGenerate begins the span covering one LLMClient.Generate call.
func (t *Tracer) StartGenerate(ctx context.Context, provider string) (context.Context, trace.Span) {
	return t.Start(ctx, fmt.Sprintf("llm.generate.%s", provider),
		attribute.String("llm.provider", provider),
	)
}

// StartToolExecution begins the span covering one tool dispatch.
func (t *Tracer) StartToolExecution(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return t.Start(ctx, fmt.Sprintf("tool.execute.%s", toolName),
		attribute.String("tool.name", toolName),
	)
}

// SetGlobalProvider installs provider as the process-wide default, so code
// outside this package (middleware, library instrumentation) joins the
// same trace tree.
func SetGlobalProvider(provider *sdktrace.TracerProvider) {
	otel.SetTracerProvider(provider)
}
