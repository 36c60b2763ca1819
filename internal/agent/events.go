package agent

import (
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/tools"
	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

func (a *Agent) emitStepStarted(step, max int) {
	if a.events == nil {
		return
	}
	a.events.Publish(models.Event{
		Kind:        models.EventStepStarted,
		StepStarted: &models.StepStartedPayload{Step: step, MaxSteps: max},
	})
}

func (a *Agent) emitLlmResponseReceived(response models.LLMResponse) {
	if a.events == nil {
		return
	}
	a.events.Publish(models.Event{
		Kind:                models.EventLlmResponseReceived,
		LlmResponseReceived: &models.LlmResponseReceivedPayload{Response: response},
	})
}

// emitToolCallStarted publishes ToolCallStarted. When the call resolved to
// a known tool, ArgOrder carries call.Args' keys ordered to match the
// tool's declared parameters, so a subscriber rendering the call doesn't
// have to re-derive positional order from an unordered map itself.
func (a *Agent) emitToolCallStarted(call models.ToolCall, tool models.Tool, resolved bool) {
	if a.events == nil {
		return
	}
	var argOrder []string
	if resolved {
		argOrder = tools.OrderedArgNames(tool, call.Args)
	}
	a.events.Publish(models.Event{
		Kind: models.EventToolCallStarted,
		ToolCallStarted: &models.ToolCallStartedPayload{
			ID:       call.ID,
			Name:     call.Name,
			Args:     call.Args,
			ArgOrder: argOrder,
		},
	})
}

func (a *Agent) emitToolCallFinished(ok bool, id, name string, result models.ToolResult) {
	if a.events == nil {
		return
	}
	a.events.Publish(models.Event{
		Kind: models.EventToolCallFinished,
		ToolCallFinished: &models.ToolCallFinishedPayload{
			OK:     ok,
			ID:     id,
			Name:   name,
			Result: result,
		},
	})
}

func (a *Agent) emitReplyReceived(reply models.Reply) {
	if a.events == nil {
		return
	}
	a.events.Publish(models.Event{
		Kind:             models.EventEmaReplyReceived,
		EmaReplyReceived: &models.EmaReplyReceivedPayload{Reply: reply},
	})
}

func (a *Agent) emitRunFinished(ok bool, msg, errMsg string) {
	if a.events == nil {
		return
	}
	a.events.Publish(models.Event{
		Kind:        models.EventRunFinished,
		RunFinished: &models.RunFinishedPayload{OK: ok, Msg: msg, Error: errMsg},
	})
}
