package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"betterresume/internal/config"
	llmtypes "betterresume/internal/llm/types"
	"betterresume/internal/logging"
)

// ClaudeProvider implements the LLM provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client anthropic.Client
	config *config.Config
}

// NewClaudeProvider creates a new Claude provider instance
func NewClaudeProvider(cfg *config.Config) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
	)

	return &ClaudeProvider{
		client: client,
		config: cfg,
	}
}

// Chat sends a conversation to Claude and returns the reply, including any
// tool calls the model requested.
func (cp *ClaudeProvider) Chat(ctx context.Context, req *llmtypes.ChatRequest) (*llmtypes.ChatResponse, error) {
	logger := logging.GetGlobalLogger()

	model := req.Model
	if model == "" {
		model = cp.config.LLM.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = cp.config.LLM.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  cp.buildMessages(req.Messages),
	}

	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	} else if cp.config.LLM.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(cp.config.LLM.Temperature))
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	if len(req.Tools) > 0 {
		params.Tools = cp.buildTools(req.Tools)
	}

	response, err := cp.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to call Claude API: %w", err)
	}

	result := cp.parseResponse(response)

	logger.Debug("Claude response received", map[string]interface{}{
		"model":       model,
		"stop_reason": result.StopReason,
		"tool_calls":  len(result.ToolCalls),
	})

	return result, nil
}

// buildMessages converts neutral chat messages to Anthropic message params.
// Tool results are carried in user-role messages per the Anthropic API.
func (cp *ClaudeProvider) buildMessages(messages []llmtypes.Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case llmtypes.RoleUser:
			params = append(params, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text)))

		case llmtypes.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Text))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    call.ID,
						Name:  call.Name,
						Input: json.RawMessage(call.Arguments),
					},
				})
			}
			params = append(params, anthropic.NewAssistantMessage(blocks...))

		case llmtypes.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for _, result := range msg.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(result.CallID, result.Content, result.IsError))
			}
			params = append(params, anthropic.NewUserMessage(blocks...))
		}
	}

	return params
}

// buildTools converts neutral tool specs to Anthropic tool params
func (cp *ClaudeProvider) buildTools(tools []llmtypes.ToolSpec) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))

	for _, tool := range tools {
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := tool.Parameters["properties"]; ok {
			schema.Properties = props
		}
		if required, ok := tool.Parameters["required"]; ok {
			schema.ExtraFields = map[string]interface{}{"required": required}
		}

		params = append(params, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: schema,
			},
		})
	}

	return params
}

// parseResponse extracts text and tool calls from a Claude message
func (cp *ClaudeProvider) parseResponse(response *anthropic.Message) *llmtypes.ChatResponse {
	result := &llmtypes.ChatResponse{
		StopReason: string(response.StopReason),
		Model:      string(response.Model),
	}

	for _, block := range response.Content {
		switch content := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Text += content.Text
		case anthropic.ToolUseBlock:
			result.ToolCalls = append(result.ToolCalls, llmtypes.ToolCall{
				ID:        content.ID,
				Name:      content.Name,
				Arguments: json.RawMessage(content.Input),
			})
		}
	}

	return result
}

// IsTransient reports whether an API error is worth retrying
func (cp *ClaudeProvider) IsTransient(err error) bool {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 408, apierr.StatusCode == 429:
			return true
		case apierr.StatusCode >= 500:
			return true
		default:
			return false
		}
	}
	// Network-level failures are retryable
	return true
}

// IsHealthy checks if the Claude provider is healthy and available
func (cp *ClaudeProvider) IsHealthy(ctx context.Context) error {
	if cp.config.LLM.APIKey == "" {
		return fmt.Errorf("Claude API key not configured - set LLM_API_KEY environment variable")
	}

	_, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(cp.config.LLM.Model),
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Hello")),
		},
	})

	if err != nil {
		return fmt.Errorf("Claude API health check failed: %w", err)
	}

	return nil
}

// GetProviderName returns the name of the LLM provider
func (cp *ClaudeProvider) GetProviderName() string {
	return "claude"
}
