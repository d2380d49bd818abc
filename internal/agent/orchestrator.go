package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"betterresume/internal/llm"
	"betterresume/internal/logging"
	"betterresume/pkg/models"
)

// runState tracks where a generation run is in its lifecycle
type runState int

const (
	stateAwaitingModel runState = iota
	stateAwaitingTools
	stateTerminal
)

const defaultMaxTurns = 8

// RunOptions configures a single generation run
type RunOptions struct {
	// Model overrides the configured default model when set
	Model string

	// MaxTurns bounds the number of model invocations in one run
	MaxTurns int

	// RequireTool enforces that at least one retrieval happens before the
	// model may produce its final answer.
	RequireTool bool

	// FallbackTool and FallbackQuery describe the retrieval call synthesized
	// when RequireTool is set and the model's first turn makes no tool call.
	FallbackTool  string
	FallbackQuery string

	// Progress receives stage events during the run. May be nil.
	Progress models.ProgressCallback
}

// Orchestrator drives the tool-calling conversation that produces a
// structured resume. Each run is an explicit state machine: the model is
// invoked, any tool calls it makes are dispatched and fed back, and the loop
// repeats until the model answers with text only.
type Orchestrator struct {
	gateway    *llm.Gateway
	dispatcher *Dispatcher
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(gateway *llm.Gateway, dispatcher *Dispatcher) *Orchestrator {
	return &Orchestrator{
		gateway:    gateway,
		dispatcher: dispatcher,
	}
}

// GenerateResume runs the full conversation for a job description and parses
// the model's final answer into a structured resume.
func (o *Orchestrator) GenerateResume(ctx context.Context, jobDescription string, opts RunOptions) (*models.StructuredResume, error) {
	logger := logging.GetGlobalLogger()

	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	messages := []llm.Message{
		{Role: llm.RoleUser, Text: BuildGenerationPrompt(jobDescription)},
	}

	state := stateAwaitingModel
	var pendingCalls []llm.ToolCall
	var finalText string
	toolUsed := false
	fallbackUsed := false

	for turn := 1; ; {
		switch state {
		case stateAwaitingModel:
			if turn > maxTurns {
				return nil, &TurnLimitError{MaxTurns: maxTurns}
			}

			o.emit(opts.Progress, models.StageInvokingModel, "Invoking model", map[string]interface{}{
				"turn": turn,
			})

			response, err := o.gateway.Invoke(ctx, &llm.ChatRequest{
				System:   GenerationSystemPrompt,
				Messages: messages,
				Tools:    o.dispatcher.Specs(),
				Model:    opts.Model,
			})
			if err != nil {
				return nil, err
			}
			turn++

			messages = append(messages, llm.Message{
				Role:      llm.RoleAssistant,
				Text:      response.Text,
				ToolCalls: response.ToolCalls,
			})

			if len(response.ToolCalls) > 0 {
				pendingCalls = response.ToolCalls
				state = stateAwaitingTools
				continue
			}

			if opts.RequireTool && !toolUsed {
				if fallbackUsed || opts.FallbackTool == "" || !o.dispatcher.Has(opts.FallbackTool) {
					return nil, &NoToolCallError{Turns: turn - 1}
				}

				// The model skipped retrieval; synthesize one call so the
				// resume is grounded in the user's records.
				call := o.synthesizeFallbackCall(opts)
				logger.Warn("Model made no tool call, forcing fallback retrieval", map[string]interface{}{
					"tool":  call.Name,
					"query": opts.FallbackQuery,
				})

				messages = append(messages, llm.Message{
					Role:      llm.RoleAssistant,
					ToolCalls: []llm.ToolCall{call},
				})
				pendingCalls = []llm.ToolCall{call}
				fallbackUsed = true
				state = stateAwaitingTools
				continue
			}

			finalText = response.Text
			state = stateTerminal

		case stateAwaitingTools:
			results := o.dispatcher.Dispatch(ctx, pendingCalls)
			toolUsed = true
			pendingCalls = nil

			messages = append(messages, llm.Message{
				Role:        llm.RoleTool,
				ToolResults: results,
			})
			state = stateAwaitingModel

		case stateTerminal:
			resume, err := ParseStructuredResume(finalText)
			if err != nil {
				return nil, err
			}

			o.emit(opts.Progress, models.StageParsed, "Resume parsed", map[string]interface{}{
				"language":    resume.Language,
				"experience":  len(resume.ResumeSection.Experience),
				"skills":      len(resume.ResumeSection.Skills),
				"model_turns": turn - 1,
			})

			return resume, nil
		}
	}
}

// TranslateResume runs the translation pass over an already generated resume.
// It is invoked at most once per generation, when the resume language is not
// English.
func (o *Orchestrator) TranslateResume(ctx context.Context, jobDescription string, resume *models.StructuredResume, opts RunOptions) (*models.StructuredResume, error) {
	encoded, err := json.Marshal(resume)
	if err != nil {
		return nil, fmt.Errorf("failed to encode resume for translation: %w", err)
	}

	o.emit(opts.Progress, models.StageTranslating, "Translating resume", map[string]interface{}{
		"language": resume.Language,
	})

	response, err := o.gateway.Invoke(ctx, &llm.ChatRequest{
		System: TranslationSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Text: BuildTranslationPrompt(jobDescription, string(encoded))},
		},
		Model: opts.Model,
	})
	if err != nil {
		return nil, err
	}

	translated, err := ParseStructuredResume(response.Text)
	if err != nil {
		return nil, err
	}

	o.emit(opts.Progress, models.StageTranslated, "Resume translated", map[string]interface{}{
		"language": translated.Language,
	})

	return translated, nil
}

func (o *Orchestrator) synthesizeFallbackCall(opts RunOptions) llm.ToolCall {
	arguments, _ := json.Marshal(map[string]string{"query": opts.FallbackQuery})
	return llm.ToolCall{
		ID:        "call_" + uuid.New().String(),
		Name:      opts.FallbackTool,
		Arguments: arguments,
	}
}

func (o *Orchestrator) emit(progress models.ProgressCallback, stage, message string, data map[string]interface{}) {
	if progress == nil {
		return
	}
	progress(models.ProgressEvent{Stage: stage, Message: message, Data: data})
}
