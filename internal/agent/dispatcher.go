package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	llmtypes "betterresume/internal/llm/types"
	"betterresume/internal/logging"
)

// Tool is a capability the model may invoke during a generation run
type Tool interface {
	// Name returns the tool's identifier as exposed to the model
	Name() string

	// Description returns the tool's description as exposed to the model
	Description() string

	// Parameters returns a JSON schema for the tool's arguments
	Parameters() map[string]interface{}

	// Invoke executes the tool and returns its textual result
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

// Dispatcher routes model tool calls to registered tools. The registry is
// closed after construction; tools cannot be added while runs are in flight.
type Dispatcher struct {
	tools map[string]Tool
	order []string
	mu    sync.RWMutex
}

// NewDispatcher creates a dispatcher over the given tools
func NewDispatcher(tools ...Tool) *Dispatcher {
	d := &Dispatcher{
		tools: make(map[string]Tool, len(tools)),
	}
	for _, tool := range tools {
		if _, exists := d.tools[tool.Name()]; exists {
			continue
		}
		d.tools[tool.Name()] = tool
		d.order = append(d.order, tool.Name())
	}
	sort.Strings(d.order)
	return d
}

// Specs returns the registered tools as specs for the model, in stable order
func (d *Dispatcher) Specs() []llmtypes.ToolSpec {
	d.mu.RLock()
	defer d.mu.RUnlock()

	specs := make([]llmtypes.ToolSpec, 0, len(d.order))
	for _, name := range d.order {
		tool := d.tools[name]
		specs = append(specs, llmtypes.ToolSpec{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return specs
}

// Has reports whether a tool with the given name is registered
func (d *Dispatcher) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.tools[name]
	return ok
}

// Dispatch executes the given tool calls in order and returns one result per
// call, correlated by call ID. Unknown tools and tool failures produce error
// results rather than aborting the run.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []llmtypes.ToolCall) []llmtypes.ToolResult {
	logger := logging.GetGlobalLogger()
	results := make([]llmtypes.ToolResult, 0, len(calls))

	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			results = append(results, llmtypes.ToolResult{
				CallID:  call.ID,
				Name:    call.Name,
				Content: fmt.Sprintf("tool call aborted: %v", err),
				IsError: true,
			})
			continue
		}

		d.mu.RLock()
		tool, ok := d.tools[call.Name]
		d.mu.RUnlock()

		if !ok {
			logger.Warn("Model requested unknown tool", map[string]interface{}{
				"tool":    call.Name,
				"call_id": call.ID,
			})
			results = append(results, llmtypes.ToolResult{
				CallID:  call.ID,
				Name:    call.Name,
				Content: fmt.Sprintf("unknown tool: %s", call.Name),
				IsError: true,
			})
			continue
		}

		content, err := tool.Invoke(ctx, call.Arguments)
		if err != nil {
			logger.Warn("Tool invocation failed", map[string]interface{}{
				"tool":    call.Name,
				"call_id": call.ID,
				"error":   err.Error(),
			})
			results = append(results, llmtypes.ToolResult{
				CallID:  call.ID,
				Name:    call.Name,
				Content: fmt.Sprintf("tool error: %v", err),
				IsError: true,
			})
			continue
		}

		results = append(results, llmtypes.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: content,
		})
	}

	return results
}
