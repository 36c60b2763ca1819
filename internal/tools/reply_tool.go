package tools

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// ReplyTool is the distinguished reply tool (canonical name ema_reply). Its
// successful invocation is what the Agent turns into a ReplyReceived event;
// ReplyTool itself just validates and echoes its structured payload back
// as the tool's content, which the Agent then parses into a models.Reply.
type ReplyTool struct {
	params models.ToolParameters
}

// NewReplyTool builds the reply tool. Its property names are listed in
// replyParameters in models.Reply's field order; reflection over
// models.Reply supplies only property descriptions, so a change to
// models.Reply's fields is not picked up by the schema automatically.
func NewReplyTool() *ReplyTool {
	return &ReplyTool{params: replyParameters()}
}

func replyParameters() models.ToolParameters {
	reflector := &jsonschema.Reflector{ExpandedStruct: true}
	schema := reflector.Reflect(&models.Reply{})

	// models.Reply's field order (think, expression, action, response) is
	// the declared order the Agent reports a call's args in (ArgOrder).
	order := []string{"think", "expression", "action", "response"}
	props := make([]models.ToolParameter, 0, len(order))
	for _, name := range order {
		p := models.ToolParameter{Name: name, Type: "string"}
		if def, ok := schema.Properties.Get(name); ok && def != nil {
			p.Description = def.Description
		}
		props = append(props, p)
	}

	return models.ToolParameters{
		Type:       "object",
		Properties: props,
		Required:   order,
	}
}

func (t *ReplyTool) Name() string                     { return models.ReplyToolName }
func (t *ReplyTool) Description() string {
	return "Deliver the user-visible reply for this turn: your private reasoning, tone, any follow-up action, and the response text the user will see."
}
func (t *ReplyTool) Parameters() models.ToolParameters { return t.params }

// Execute requires a non-empty response (the other three fields may be
// empty here; the Agent's ValidateArgs checks that all four are present
// before Execute runs) and returns the reply's canonical JSON encoding as
// the tool's content. The Agent is
// responsible for parsing that content into a models.Reply and for
// clearing it before the ToolMessage re-enters context.
func (t *ReplyTool) Execute(_ context.Context, args map[string]any) models.ToolResult {
	reply := models.Reply{
		Think:      stringArg(args, "think"),
		Expression: stringArg(args, "expression"),
		Action:     stringArg(args, "action"),
		Response:   stringArg(args, "response"),
	}
	if reply.Response == "" {
		return models.NewToolFailure("ema_reply requires a non-empty response")
	}
	b, err := json.Marshal(reply)
	if err != nil {
		return models.NewToolFailure("failed to encode reply: " + err.Error())
	}
	return models.NewToolSuccess(string(b))
}

func stringArg(args map[string]any, name string) string {
	v, ok := args[name]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
