package models

import (
	"context"
	"encoding/json"
)

// Tool is the uniform invocation contract every tool exposes to the Agent.
// Name, Description, and Parameters are immutable for the tool's lifetime.
// Execute blocks until the tool finishes and must not panic to signal
// failure: a failed invocation is reported as ToolResult{Success: false, Error: ...}.
type Tool interface {
	Name() string
	Description() string

	// Parameters returns the tool's JSON-Schema parameter object. Properties
	// are listed in declaration order; the Agent uses that order only to
	// fill ToolCallStartedPayload.ArgOrder. Execute always receives the
	// model's named args as a map, not as positional arguments.
	Parameters() ToolParameters

	Execute(ctx context.Context, args map[string]any) ToolResult
}

// ToolParameters is a JSON-Schema "object" node restricted to what the
// Agent needs: an ordered list of named properties plus which are required.
type ToolParameters struct {
	Type       string               `json:"type"`
	Properties []ToolParameter      `json:"properties"`
	Required   []string             `json:"required,omitempty"`
}

// ToolParameter describes one named, ordered argument.
type ToolParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// OrderedArgNames returns the argument names in declaration order, the
// order the Agent reports a call's args in (ToolCallStartedPayload.ArgOrder).
func (p ToolParameters) OrderedArgNames() []string {
	names := make([]string, len(p.Properties))
	for i, prop := range p.Properties {
		names[i] = prop.Name
	}
	return names
}

// MarshalJSON renders a standard JSON-Schema object node. The slice backing
// Properties keeps declaration order for the Agent; Go's json package
// already emits map keys in a fixed (sorted) order so a schema consumer
// that needs the original order should use OrderedArgNames instead of
// relying on property order in the marshaled schema.
func (p ToolParameters) MarshalJSON() ([]byte, error) {
	props := make(map[string]any, len(p.Properties))
	for _, prop := range p.Properties {
		entry := map[string]any{"type": prop.Type}
		if prop.Description != "" {
			entry["description"] = prop.Description
		}
		props[prop.Name] = entry
	}
	typ := p.Type
	if typ == "" {
		typ = "object"
	}
	out := map[string]any{
		"type":       typ,
		"properties": props,
	}
	if len(p.Required) > 0 {
		out["required"] = p.Required
	}
	return json.Marshal(out)
}
