package types

import (
	"context"
	"encoding/json"
	"fmt"
)

// Role identifies the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall represents a tool invocation requested by the model
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult represents the outcome of a tool invocation, correlated by call ID
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// Message is a single turn in a chat conversation
type Message struct {
	Role        Role         `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolSpec describes a tool the model may call. Parameters is a JSON schema
// for the tool's arguments.
type ToolSpec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ChatRequest represents a single model invocation
type ChatRequest struct {
	System      string     `json:"system,omitempty"`
	Messages    []Message  `json:"messages"`
	Tools       []ToolSpec `json:"tools,omitempty"`
	Model       string     `json:"model,omitempty"`
	MaxTokens   int        `json:"max_tokens,omitempty"`
	Temperature float32    `json:"temperature,omitempty"`
}

// ChatResponse represents the model's reply to a ChatRequest
type ChatResponse struct {
	Text       string     `json:"text,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	StopReason string     `json:"stop_reason,omitempty"`
	Model      string     `json:"model,omitempty"`
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Chat sends a conversation to the model and returns its reply
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// IsHealthy checks if the provider is healthy and available
	IsHealthy(ctx context.Context) error

	// GetProviderName returns the name of the provider
	GetProviderName() string
}

// TransientClassifier is implemented by providers that can distinguish
// retryable failures from permanent ones.
type TransientClassifier interface {
	IsTransient(err error) bool
}

// ModelUnavailableError indicates the model could not be reached after
// exhausting the retry policy.
type ModelUnavailableError struct {
	Attempts int
	Err      error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}
