// Package providers implements llm.Client against real model SDKs. Both
// adapters here are intentionally non-streaming: spec.md's Non-goals
// scope provider internals out of the core, so these exist only to prove
// the Generate contract against two independent ecosystems, not to
// replicate the teacher's full streaming machinery.
package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// AnthropicConfig configures an Anthropic-backed llm.Client.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Anthropic is an llm.Client backed by the Anthropic Messages API,
// making one non-streaming call per Generate.
type Anthropic struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropic builds an Anthropic client. config.APIKey is required.
func NewAnthropic(config AnthropicConfig) (*Anthropic, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	model := config.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
	}, nil
}

// Generate implements llm.Client.
func (a *Anthropic) Generate(ctx context.Context, messages []models.Message, tools []models.Tool, systemPrompt string) (models.LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 4096,
		Messages:  convertMessages(messages),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if len(tools) > 0 {
		toolParams, err := convertTools(tools)
		if err != nil {
			return models.LLMResponse{}, err
		}
		params.Tools = toolParams
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return models.LLMResponse{}, fmt.Errorf("anthropic generate: %w", err)
	}

	return anthropicToResponse(msg), nil
}

func convertMessages(messages []models.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch v := msg.(type) {
		case models.UserMessage:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(models.JoinedText(v.Contents))))
		case models.ModelMessage:
			var blocks []anthropic.ContentBlockParamUnion
			if text := models.JoinedText(v.Contents); text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(text))
			}
			for _, call := range v.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, call.Args, call.Name))
			}
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		case models.ToolMessage:
			result = append(result, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(v.ID, models.MarshalToolResultForEstimation(v.Result), !v.Result.Success),
			))
		}
	}
	return result
}

func convertTools(tools []models.Tool) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		raw, err := json.Marshal(tool.Parameters())
		if err != nil {
			return nil, fmt.Errorf("marshal schema for %s: %w", tool.Name(), err)
		}
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name(), err)
		}

		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name())
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", tool.Name())
		}
		toolParam.OfTool.Description = anthropic.String(tool.Description())
		result = append(result, toolParam)
	}
	return result, nil
}

func anthropicToResponse(msg *anthropic.Message) models.LLMResponse {
	var contents []models.Content
	var toolCalls []models.ToolCall
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			contents = append(contents, models.TextContent(v.Text))
		case anthropic.ToolUseBlock:
			var args map[string]any
			_ = json.Unmarshal(v.Input, &args)
			toolCalls = append(toolCalls, models.ToolCall{ID: v.ID, Name: v.Name, Args: args})
		}
	}

	return models.LLMResponse{
		Message: models.ModelMessage{Contents: contents, ToolCalls: toolCalls},
		FinishReason: string(msg.StopReason),
		TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}
}
