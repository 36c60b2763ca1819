// Package llm defines the provider-agnostic contract the Agent drives: one
// Generate call per step, cancellable via context and failing with a typed
// error the Agent knows how to report.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// Client is the contract an LLM provider adapter implements. Generate must
// honor ctx cancellation promptly: the Agent relies on that to make Abort
// fail the in-flight call fast rather than waiting it out.
type Client interface {
	Generate(ctx context.Context, messages []models.Message, tools []models.Tool, systemPrompt string) (models.LLMResponse, error)
}

// RetryExhaustedError reports that every retry attempt a provider adapter
// made failed. The Agent treats it the same as any other Generate error:
// the run ends cleanly via runFinished{ok=false}.
type RetryExhaustedError struct {
	Attempts  int
	LastError error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.LastError)
}

func (e *RetryExhaustedError) Unwrap() error { return e.LastError }

// IsCancellation reports whether err represents the ctx being cancelled
// rather than a genuine provider failure. The Agent treats cancellation as
// a non-fatal early termination, not an error to surface.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
