package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"betterresume/internal/config"
	llmtypes "betterresume/internal/llm/types"
	"betterresume/internal/logging"
)

// GeminiProvider implements the LLM provider interface using Google's Gemini
type GeminiProvider struct {
	client *genai.Client
	config *config.Config
}

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(ctx context.Context, cfg *config.Config) (*GeminiProvider, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured - set LLM_API_KEY environment variable")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.LLM.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		config: cfg,
	}, nil
}

// Chat sends a conversation to Gemini and returns the reply. Gemini does not
// assign tool call IDs, so synthetic IDs are generated; correlation on the
// way back is by function name per the Gemini API.
func (gp *GeminiProvider) Chat(ctx context.Context, req *llmtypes.ChatRequest) (*llmtypes.ChatResponse, error) {
	logger := logging.GetGlobalLogger()

	modelName := req.Model
	if modelName == "" {
		modelName = gp.config.LLM.Model
	}

	model := gp.client.GenerativeModel(modelName)

	if req.Temperature > 0 {
		model.SetTemperature(req.Temperature)
	} else if gp.config.LLM.Temperature > 0 {
		model.SetTemperature(gp.config.LLM.Temperature)
	}

	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	if len(req.Tools) > 0 {
		model.Tools = gp.buildTools(req.Tools)
	}

	history, last, err := gp.buildContents(req.Messages)
	if err != nil {
		return nil, err
	}
	if len(last) == 0 {
		return nil, fmt.Errorf("chat request has no trailing user message")
	}

	session := model.StartChat()
	session.History = history

	response, err := session.SendMessage(ctx, last...)
	if err != nil {
		return nil, fmt.Errorf("failed to call Gemini API: %w", err)
	}

	result, err := gp.parseResponse(response)
	if err != nil {
		return nil, err
	}
	result.Model = modelName

	logger.Debug("Gemini response received", map[string]interface{}{
		"model":       modelName,
		"stop_reason": result.StopReason,
		"tool_calls":  len(result.ToolCalls),
	})

	return result, nil
}

// buildContents converts neutral chat messages to Gemini content. The final
// user or tool turn is returned separately as the parts to send.
func (gp *GeminiProvider) buildContents(messages []llmtypes.Message) ([]*genai.Content, []genai.Part, error) {
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		var content *genai.Content

		switch msg.Role {
		case llmtypes.RoleUser:
			content = &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Text)},
			}

		case llmtypes.RoleAssistant:
			var parts []genai.Part
			if msg.Text != "" {
				parts = append(parts, genai.Text(msg.Text))
			}
			for _, call := range msg.ToolCalls {
				args := map[string]interface{}{}
				if len(call.Arguments) > 0 {
					if err := json.Unmarshal(call.Arguments, &args); err != nil {
						return nil, nil, fmt.Errorf("invalid tool call arguments for %s: %w", call.Name, err)
					}
				}
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: args})
			}
			content = &genai.Content{Role: "model", Parts: parts}

		case llmtypes.RoleTool:
			var parts []genai.Part
			for _, result := range msg.ToolResults {
				parts = append(parts, genai.FunctionResponse{
					Name: result.Name,
					Response: map[string]interface{}{
						"content":  result.Content,
						"is_error": result.IsError,
					},
				})
			}
			content = &genai.Content{Role: "user", Parts: parts}

		default:
			return nil, nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}

		contents = append(contents, content)
	}

	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("chat request has no messages")
	}

	last := contents[len(contents)-1]
	if last.Role != "user" {
		return nil, nil, fmt.Errorf("chat request must end with a user or tool turn")
	}

	return contents[:len(contents)-1], last.Parts, nil
}

// buildTools converts neutral tool specs to Gemini function declarations
func (gp *GeminiProvider) buildTools(tools []llmtypes.ToolSpec) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))

	for _, tool := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGeminiSchema(tool.Parameters),
		})
	}

	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// toGeminiSchema converts a JSON schema map to a genai.Schema
func toGeminiSchema(schema map[string]interface{}) *genai.Schema {
	if schema == nil {
		return nil
	}

	s := &genai.Schema{}

	if typeName, ok := schema["type"].(string); ok {
		switch typeName {
		case "object":
			s.Type = genai.TypeObject
		case "string":
			s.Type = genai.TypeString
		case "number":
			s.Type = genai.TypeNumber
		case "integer":
			s.Type = genai.TypeInteger
		case "boolean":
			s.Type = genai.TypeBoolean
		case "array":
			s.Type = genai.TypeArray
		}
	}

	if description, ok := schema["description"].(string); ok {
		s.Description = description
	}

	if properties, ok := schema["properties"].(map[string]interface{}); ok {
		s.Properties = make(map[string]*genai.Schema, len(properties))
		for name, prop := range properties {
			if propMap, ok := prop.(map[string]interface{}); ok {
				s.Properties[name] = toGeminiSchema(propMap)
			}
		}
	}

	if items, ok := schema["items"].(map[string]interface{}); ok {
		s.Items = toGeminiSchema(items)
	}

	if required, ok := schema["required"].([]string); ok {
		s.Required = required
	} else if required, ok := schema["required"].([]interface{}); ok {
		for _, name := range required {
			if str, ok := name.(string); ok {
				s.Required = append(s.Required, str)
			}
		}
	}

	return s
}

// parseResponse extracts text and tool calls from a Gemini response
func (gp *GeminiProvider) parseResponse(response *genai.GenerateContentResponse) (*llmtypes.ChatResponse, error) {
	if len(response.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	candidate := response.Candidates[0]
	result := &llmtypes.ChatResponse{
		StopReason: candidate.FinishReason.String(),
	}

	if candidate.Content == nil {
		return result, nil
	}

	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			result.Text += string(p)
		case genai.FunctionCall:
			arguments, err := json.Marshal(p.Args)
			if err != nil {
				return nil, fmt.Errorf("failed to encode tool call arguments for %s: %w", p.Name, err)
			}
			result.ToolCalls = append(result.ToolCalls, llmtypes.ToolCall{
				ID:        "call_" + uuid.New().String(),
				Name:      p.Name,
				Arguments: arguments,
			})
		}
	}

	return result, nil
}

// IsTransient reports whether an API error is worth retrying
func (gp *GeminiProvider) IsTransient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429 || gerr.Code >= 500
	}
	return true
}

// IsHealthy checks if the Gemini provider is healthy and available
func (gp *GeminiProvider) IsHealthy(ctx context.Context) error {
	model := gp.client.GenerativeModel(gp.config.LLM.Model)
	model.SetMaxOutputTokens(16)

	if _, err := model.GenerateContent(ctx, genai.Text("Hello")); err != nil {
		return fmt.Errorf("Gemini API health check failed: %w", err)
	}

	return nil
}

// Close releases resources held by the provider
func (gp *GeminiProvider) Close() error {
	if gp.client != nil {
		return gp.client.Close()
	}
	return nil
}

// GetProviderName returns the name of the LLM provider
func (gp *GeminiProvider) GetProviderName() string {
	return "gemini"
}
