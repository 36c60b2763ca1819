package agent

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// startStep begins the span covering one Run step, or is a no-op if no
// Tracer is attached.
func (a *Agent) startStep(ctx context.Context, step, maxSteps int) (context.Context, trace.Span) {
	if a.tracer == nil {
		return ctx, nil
	}
	return a.tracer.StartStep(ctx, step, maxSteps)
}

// startGenerate begins the span covering one LLMClient.Generate call, or
// is a no-op if no Tracer is attached.
func (a *Agent) startGenerate(ctx context.Context) (context.Context, trace.Span) {
	if a.tracer == nil {
		return ctx, nil
	}
	return a.tracer.StartGenerate(ctx, a.provider)
}

// startToolExecution begins the span covering one tool dispatch, or is a
// no-op if no Tracer is attached.
func (a *Agent) startToolExecution(ctx context.Context, toolName string) (context.Context, trace.Span) {
	if a.tracer == nil {
		return ctx, nil
	}
	return a.tracer.StartToolExecution(ctx, toolName)
}

// endSpan records err (if any) on span and ends it. It is a no-op when
// span is nil, which happens when no Tracer is attached.
func (a *Agent) endSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		a.tracer.RecordError(span, err)
	}
	span.End()
}
