package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/store"
	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// memorySearchArgs is reflected into the tool's JSON-Schema parameters, the
// same way ReplyTool derives its schema from models.Reply.
type memorySearchArgs struct {
	Query string `json:"query" jsonschema_description:"What to search for in this actor's long-term memory."`
	TopK  int    `json:"top_k,omitempty" jsonschema_description:"Maximum number of results to return. Defaults to 5."`
}

// MemorySearchTool lets the model pull prior long-term memory records into
// context on demand, scoped to a single actor. It is the supplemented tool
// SPEC_FULL.md adds beyond the reply tool.
type MemorySearchTool struct {
	actorID string
	search  store.LongTermMemorySearcher
	params  models.ToolParameters
}

// NewMemorySearchTool builds a memory_search tool bound to one actor's
// long-term memory.
func NewMemorySearchTool(actorID string, search store.LongTermMemorySearcher) *MemorySearchTool {
	return &MemorySearchTool{actorID: actorID, search: search, params: memorySearchParameters()}
}

func memorySearchParameters() models.ToolParameters {
	reflector := &jsonschema.Reflector{ExpandedStruct: true}
	schema := reflector.Reflect(&memorySearchArgs{})

	order := []string{"query", "top_k"}
	props := make([]models.ToolParameter, 0, len(order))
	for _, name := range order {
		typ := "string"
		if name == "top_k" {
			typ = "integer"
		}
		p := models.ToolParameter{Name: name, Type: typ}
		if def, ok := schema.Properties.Get(name); ok && def != nil {
			p.Description = def.Description
		}
		props = append(props, p)
	}

	return models.ToolParameters{
		Type:       "object",
		Properties: props,
		Required:   []string{"query"},
	}
}

func (t *MemorySearchTool) Name() string        { return "memory_search" }
func (t *MemorySearchTool) Description() string {
	return "Search this actor's long-term memory for records relevant to a query."
}
func (t *MemorySearchTool) Parameters() models.ToolParameters { return t.params }

const defaultMemorySearchTopK = 5

// Execute runs the search and returns the matches JSON-encoded. An empty
// result set is success, not failure: the model should be able to tell
// "searched, found nothing" apart from "the search itself failed".
func (t *MemorySearchTool) Execute(ctx context.Context, args map[string]any) models.ToolResult {
	query := stringArg(args, "query")
	if query == "" {
		return models.NewToolFailure("memory_search requires a non-empty query")
	}

	topK := defaultMemorySearchTopK
	if v, ok := args["top_k"]; ok {
		if f, ok := v.(float64); ok && f > 0 {
			topK = int(f)
		}
	}

	records, err := t.search.Search(ctx, t.actorID, query, topK)
	if err != nil {
		return models.NewToolFailure(fmt.Sprintf("memory search failed: %v", err))
	}

	b, err := json.Marshal(records)
	if err != nil {
		return models.NewToolFailure("failed to encode search results: " + err.Error())
	}
	return models.NewToolSuccess(string(b))
}
