package models

import "encoding/json"

// MessageKind tags the concrete type behind the Message interface.
type MessageKind string

const (
	MessageUser  MessageKind = "user"
	MessageModel MessageKind = "model"
	MessageTool  MessageKind = "tool"
)

// Message is a tagged variant over UserMessage, ModelMessage, and
// ToolMessage. Kind reports which one a given value is; callers switch on
// the concrete type (or Kind) rather than on reflection.
type Message interface {
	Kind() MessageKind
	message()
}

// UserMessage carries content blocks submitted by the end user.
type UserMessage struct {
	Contents []Content `json:"contents"`
}

func (UserMessage) Kind() MessageKind { return MessageUser }
func (UserMessage) message()          {}

// ModelMessage carries the model's own content and, when it decided to act,
// the tool calls it requested. A nil/empty ToolCalls slice means the model
// produced a final answer and the run should terminate.
type ModelMessage struct {
	Contents  []Content  `json:"contents"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

func (ModelMessage) Kind() MessageKind { return MessageModel }
func (ModelMessage) message()          {}

// ToolMessage carries the outcome of executing one tool call.
type ToolMessage struct {
	Name   string     `json:"name"`
	ID     string     `json:"id,omitempty"`
	Result ToolResult `json:"result"`
}

func (ToolMessage) Kind() MessageKind { return MessageTool }
func (ToolMessage) message()          {}

// ToolCall is a model's request to invoke a named tool with the given
// arguments. ID links the call to its eventual ToolMessage; some providers
// never send one, so it may be empty.
type ToolCall struct {
	ID               string         `json:"id,omitempty"`
	Name             string         `json:"name"`
	Args             map[string]any `json:"args"`
	ThoughtSignature string         `json:"thought_signature,omitempty"`
}

// ToolResult is the outcome of a tool execution.
//
// Invariant: Success implies Content is set and Error is empty; failure
// implies Error is set. Construct with NewToolSuccess/NewToolFailure rather
// than the zero value to keep that invariant.
type ToolResult struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewToolSuccess builds a successful ToolResult.
func NewToolSuccess(content string) ToolResult {
	return ToolResult{Success: true, Content: content}
}

// NewToolFailure builds a failed ToolResult.
func NewToolFailure(err string) ToolResult {
	return ToolResult{Success: false, Error: err}
}

// LLMResponse is what an LLMClient.Generate call returns: the model's turn,
// why it stopped, and the token total the provider reported (0 if unknown).
type LLMResponse struct {
	Message      ModelMessage `json:"message"`
	FinishReason string       `json:"finish_reason"`
	TotalTokens  int          `json:"total_tokens"`
}

// MarshalToolCallsForEstimation renders tool calls the same way regardless
// of call site, so token estimation is deterministic for a given message.
func MarshalToolCallsForEstimation(calls []ToolCall) string {
	if len(calls) == 0 {
		return ""
	}
	b, err := json.Marshal(calls)
	if err != nil {
		return ""
	}
	return string(b)
}

// MarshalToolResultForEstimation renders a tool result the same way
// token estimation does, so both agree on message size.
func MarshalToolResultForEstimation(r ToolResult) string {
	b, err := json.Marshal(r)
	if err != nil {
		return r.Content + r.Error
	}
	return string(b)
}
