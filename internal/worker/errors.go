package worker

import (
	"fmt"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// InputValidationError is returned from Work for empty or unsupported
// input. It is the only error Work surfaces to callers per spec.md §7.
type InputValidationError struct {
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// unsupportedInputError is an InputValidationError raised specifically by
// a non-text content block, named separately because spec.md names it
// distinctly even though it is reported the same way.
func unsupportedInputError(kind models.ContentKind) error {
	return &InputValidationError{Reason: fmt.Sprintf("unsupported content kind: %s", kind)}
}
