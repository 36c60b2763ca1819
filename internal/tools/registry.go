// Package tools provides the ToolRegistry and the distinguished reply tool
// the Agent dispatches against.
package tools

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// Registry is a thread-safe, name-indexed set of tools. The Agent consults
// it once per tool call to resolve a model-requested name to a models.Tool.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]models.Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]models.Tool)}
}

// Register adds a tool, replacing any existing tool with the same name.
func (r *Registry) Register(tool models.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := tool.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Get resolves a tool by name.
func (r *Registry) Get(name string) (models.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// All returns every registered tool in registration order. The Agent uses
// this slice as the tool set it hands to LLMClient.Generate.
func (r *Registry) All() []models.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// OrderedArgNames returns args' keys ordered to match tool's declared
// parameter order, with any keys the schema doesn't mention appended in
// map iteration order. This mirrors how a model's named arguments would be
// positionally dispatched, even though Go tools consume them as a map.
func OrderedArgNames(tool models.Tool, args map[string]any) []string {
	declared := tool.Parameters().OrderedArgNames()
	seen := make(map[string]bool, len(declared))
	ordered := make([]string, 0, len(args))
	for _, name := range declared {
		if _, ok := args[name]; ok {
			ordered = append(ordered, name)
			seen[name] = true
		}
	}
	for name := range args {
		if !seen[name] {
			ordered = append(ordered, name)
		}
	}
	return ordered
}

var schemaCache sync.Map

// ValidateArgs checks a model-supplied args map against tool's declared
// JSON-Schema parameters before dispatch, catching malformed tool calls
// before they reach Execute.
func ValidateArgs(tool models.Tool, args map[string]any) error {
	raw, err := json.Marshal(tool.Parameters())
	if err != nil {
		return fmt.Errorf("encode schema for %s: %w", tool.Name(), err)
	}

	var compiled *jsonschema.Schema
	if cached, ok := schemaCache.Load(string(raw)); ok {
		compiled = cached.(*jsonschema.Schema)
	} else {
		compiled, err = jsonschema.CompileString(tool.Name()+".schema.json", string(raw))
		if err != nil {
			return fmt.Errorf("compile schema for %s: %w", tool.Name(), err)
		}
		schemaCache.Store(string(raw), compiled)
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode args for %s: %w", tool.Name(), err)
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("decode args for %s: %w", tool.Name(), err)
	}
	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("args for %s: %w", tool.Name(), err)
	}
	return nil
}
