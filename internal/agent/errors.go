package agent

import "fmt"

// UnknownToolError reports that a model requested a tool name the
// registry doesn't have. Per spec it never propagates as a Go error —
// it's folded into a failed ToolResult so the run keeps going — but the
// type exists for anything that wants to inspect a ToolResult.Error by
// structure instead of by string prefix.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("Unknown tool: %s", e.Name)
}

// ToolExecutionError wraps a tool failure with enough context to render
// the "<type>: <message>\n\nTraceback:\n<stack>" shape spec.md §4.3 step
// 7c calls for when a tool execution panics instead of returning a
// failed ToolResult cleanly.
type ToolExecutionError struct {
	ToolName string
	Message  string
	Stack    string
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("%s: %s\n\nTraceback:\n%s", e.ToolName, e.Message, e.Stack)
}
