package tools

import (
	"context"
	"testing"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

type stubTool struct {
	name   string
	params models.ToolParameters
}

func (s stubTool) Name() string                     { return s.name }
func (s stubTool) Description() string               { return "stub" }
func (s stubTool) Parameters() models.ToolParameters { return s.params }
func (s stubTool) Execute(context.Context, map[string]any) models.ToolResult {
	return models.NewToolSuccess("ok")
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	tool := stubTool{name: "search"}
	r.Register(tool)

	got, ok := r.Get("search")
	if !ok || got.Name() != "search" {
		t.Fatalf("Get(search) = %v, %v", got, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("Get(missing) should not be found")
	}
}

func TestRegistry_AllPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(stubTool{name: "a"})
	r.Register(stubTool{name: "b"})
	r.Register(stubTool{name: "c"})

	all := r.All()
	if len(all) != 3 || all[0].Name() != "a" || all[1].Name() != "b" || all[2].Name() != "c" {
		t.Fatalf("All() order = %v", all)
	}
}

func TestRegistry_ReRegisterReplacesWithoutDuplicatingOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(stubTool{name: "a"})
	r.Register(stubTool{name: "a"})

	if len(r.All()) != 1 {
		t.Fatalf("expected single entry after re-registering same name, got %d", len(r.All()))
	}
}

func TestOrderedArgNames_FollowsSchemaDeclarationOrder(t *testing.T) {
	tool := stubTool{
		name: "demo",
		params: models.ToolParameters{
			Properties: []models.ToolParameter{
				{Name: "b", Type: "string"},
				{Name: "a", Type: "string"},
			},
		},
	}
	args := map[string]any{"a": "1", "b": "2"}

	got := OrderedArgNames(tool, args)
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("OrderedArgNames = %v, want [b a]", got)
	}
}

func TestOrderedArgNames_UndeclaredArgsAppendedAfterDeclared(t *testing.T) {
	tool := stubTool{
		name: "demo",
		params: models.ToolParameters{
			Properties: []models.ToolParameter{{Name: "a", Type: "string"}},
		},
	}
	args := map[string]any{"a": "1", "extra": "2"}

	got := OrderedArgNames(tool, args)
	if len(got) != 2 || got[0] != "a" || got[1] != "extra" {
		t.Fatalf("OrderedArgNames = %v, want [a extra]", got)
	}
}

func TestValidateArgs_RejectsMissingRequiredField(t *testing.T) {
	tool := stubTool{
		name: "demo",
		params: models.ToolParameters{
			Type:       "object",
			Properties: []models.ToolParameter{{Name: "q", Type: "string"}},
			Required:   []string{"q"},
		},
	}
	if err := ValidateArgs(tool, map[string]any{}); err == nil {
		t.Fatal("expected validation error for missing required field")
	}
}

func TestValidateArgs_AcceptsValidArgs(t *testing.T) {
	tool := stubTool{
		name: "demo",
		params: models.ToolParameters{
			Type:       "object",
			Properties: []models.ToolParameter{{Name: "q", Type: "string"}},
			Required:   []string{"q"},
		},
	}
	if err := ValidateArgs(tool, map[string]any{"q": "hello"}); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}
