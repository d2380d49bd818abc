package llm

// Re-export types for convenience
import "betterresume/internal/llm/types"

type Role = types.Role
type ToolCall = types.ToolCall
type ToolResult = types.ToolResult
type Message = types.Message
type ToolSpec = types.ToolSpec
type ChatRequest = types.ChatRequest
type ChatResponse = types.ChatResponse
type Provider = types.Provider
type TransientClassifier = types.TransientClassifier
type ModelUnavailableError = types.ModelUnavailableError

// Re-export constants
const (
	RoleUser      = types.RoleUser
	RoleAssistant = types.RoleAssistant
	RoleTool      = types.RoleTool
)
