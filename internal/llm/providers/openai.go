package providers

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// OpenAIConfig configures an OpenAI-backed llm.Client.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAI is an llm.Client backed by the Chat Completions API, making one
// non-streaming call per Generate.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds an OpenAI client. config.APIKey is required.
func NewOpenAI(config OpenAIConfig) (*OpenAI, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	model := config.Model
	if model == "" {
		model = "gpt-4o"
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Generate implements llm.Client.
func (o *OpenAI) Generate(ctx context.Context, messages []models.Message, tools []models.Tool, systemPrompt string) (models.LLMResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: convertOpenAIMessages(messages, systemPrompt),
	}
	if len(tools) > 0 {
		req.Tools = convertOpenAITools(tools)
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return models.LLMResponse{}, fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.LLMResponse{}, fmt.Errorf("openai generate: no choices returned")
	}

	return openaiToResponse(resp), nil
}

func convertOpenAIMessages(messages []models.Message, systemPrompt string) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}

	for _, msg := range messages {
		switch v := msg.(type) {
		case models.UserMessage:
			result = append(result, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: models.JoinedText(v.Contents),
			})
		case models.ModelMessage:
			oaiMsg := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: models.JoinedText(v.Contents),
			}
			if len(v.ToolCalls) > 0 {
				oaiMsg.ToolCalls = make([]openai.ToolCall, len(v.ToolCalls))
				for i, tc := range v.ToolCalls {
					args, _ := json.Marshal(tc.Args)
					oaiMsg.ToolCalls[i] = openai.ToolCall{
						ID:   tc.ID,
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      tc.Name,
							Arguments: string(args),
						},
					}
				}
			}
			result = append(result, oaiMsg)
		case models.ToolMessage:
			content := v.Result.Content
			if !v.Result.Success {
				content = v.Result.Error
			}
			result = append(result, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				ToolCallID: v.ID,
			})
		}
	}
	return result
}

func convertOpenAITools(tools []models.Tool) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, tool := range tools {
		raw, err := json.Marshal(tool.Parameters())
		var schemaMap map[string]any
		if err != nil || json.Unmarshal(raw, &schemaMap) != nil {
			schemaMap = map[string]any{"type": "object", "properties": map[string]any{}}
		}

		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  schemaMap,
			},
		}
	}
	return result
}

func openaiToResponse(resp openai.ChatCompletionResponse) models.LLMResponse {
	choice := resp.Choices[0]
	var contents []models.Content
	if choice.Message.Content != "" {
		contents = append(contents, models.TextContent(choice.Message.Content))
	}

	var toolCalls []models.ToolCall
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		toolCalls = append(toolCalls, models.ToolCall{ID: tc.ID, Name: tc.Function.Name, Args: args})
	}

	return models.LLMResponse{
		Message:      models.ModelMessage{Contents: contents, ToolCalls: toolCalls},
		FinishReason: string(choice.FinishReason),
		TotalTokens:  resp.Usage.TotalTokens,
	}
}
