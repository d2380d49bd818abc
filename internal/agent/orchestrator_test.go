package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterresume/internal/config"
	"betterresume/internal/llm"
	"betterresume/pkg/models"
)

// scriptedProvider replays a fixed sequence of chat responses
type scriptedProvider struct {
	responses []*llm.ChatResponse
	requests  []*llm.ChatRequest
}

func (p *scriptedProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.requests = append(p.requests, req)
	if len(p.responses) == 0 {
		return &llm.ChatResponse{Text: validResumeJSON}, nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

func (p *scriptedProvider) IsHealthy(ctx context.Context) error { return nil }
func (p *scriptedProvider) GetProviderName() string             { return "scripted" }

var _ llm.Provider = (*scriptedProvider)(nil)

func newTestGateway(provider llm.Provider) *llm.Gateway {
	cfg := &config.Config{}
	cfg.Gateway.MaxConcurrent = 1
	cfg.Gateway.MaxRetries = 1
	cfg.Gateway.InitialBackoff = time.Millisecond
	return llm.NewGateway(cfg, provider)
}

func toolCall(id, name, query string) llm.ToolCall {
	args, _ := json.Marshal(map[string]string{"query": query})
	return llm.ToolCall{ID: id, Name: name, Arguments: args}
}

func TestGenerateResumeHappyPath(t *testing.T) {
	search := &fakeTool{name: "search_experience", result: "Senior Engineer at Acme, led payments team."}
	provider := &scriptedProvider{
		responses: []*llm.ChatResponse{
			{ToolCalls: []llm.ToolCall{
				toolCall("call_1", "search_experience", "backend"),
				toolCall("call_2", "search_experience", "payments"),
			}},
			{Text: validResumeJSON},
		},
	}

	o := NewOrchestrator(newTestGateway(provider), NewDispatcher(search))

	var stages []string
	resume, err := o.GenerateResume(context.Background(), "Backend role at a fintech", RunOptions{
		RequireTool:   true,
		FallbackTool:  "search_experience",
		FallbackQuery: "Backend role at a fintech",
		Progress: func(event models.ProgressEvent) {
			stages = append(stages, event.Stage)
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", resume.ResumeSection.Title)
	assert.Equal(t, 2, search.invoked)
	assert.Contains(t, stages, models.StageInvokingModel)
	assert.Contains(t, stages, models.StageParsed)

	// The second model turn must carry the tool results back
	require.Len(t, provider.requests, 2)
	second := provider.requests[1]
	var sawToolResults bool
	for _, msg := range second.Messages {
		if msg.Role == llm.RoleTool && len(msg.ToolResults) == 2 {
			sawToolResults = true
		}
	}
	assert.True(t, sawToolResults)
}

func TestGenerateResumeSynthesizesFallbackCall(t *testing.T) {
	search := &fakeTool{name: "search_experience", result: "Engineer at Acme."}
	provider := &scriptedProvider{
		responses: []*llm.ChatResponse{
			// First turn answers directly without any retrieval
			{Text: validResumeJSON},
			{Text: validResumeJSON},
		},
	}

	o := NewOrchestrator(newTestGateway(provider), NewDispatcher(search))

	resume, err := o.GenerateResume(context.Background(), "Backend role", RunOptions{
		RequireTool:   true,
		FallbackTool:  "search_experience",
		FallbackQuery: "Backend role",
	})

	require.NoError(t, err)
	assert.NotNil(t, resume)
	require.Equal(t, 1, search.invoked)

	var args map[string]string
	require.NoError(t, json.Unmarshal(search.lastArg, &args))
	assert.Equal(t, "Backend role", args["query"])
}

func TestGenerateResumeNoToolCallErrorWhenFallbackSkipped(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*llm.ChatResponse{
			{Text: validResumeJSON},
		},
	}

	// No fallback tool configured, so a retrieval-free run must fail
	o := NewOrchestrator(newTestGateway(provider), NewDispatcher())

	_, err := o.GenerateResume(context.Background(), "Backend role", RunOptions{
		RequireTool: true,
	})

	require.Error(t, err)
	var noTool *NoToolCallError
	assert.ErrorAs(t, err, &noTool)
}

func TestGenerateResumeNoToolCallErrorWhenFallbackAlsoIgnored(t *testing.T) {
	search := &fakeTool{name: "search_experience", result: "Engineer at Acme."}
	provider := &scriptedProvider{
		responses: []*llm.ChatResponse{
			{Text: "draft"},
			// Fallback retrieval happened, toolUsed is set, so this final
			// text answer is accepted.
			{Text: validResumeJSON},
		},
	}

	o := NewOrchestrator(newTestGateway(provider), NewDispatcher(search))

	resume, err := o.GenerateResume(context.Background(), "Backend role", RunOptions{
		RequireTool:   true,
		FallbackTool:  "search_experience",
		FallbackQuery: "Backend role",
	})
	require.NoError(t, err)
	assert.NotNil(t, resume)
}

func TestGenerateResumeTurnLimit(t *testing.T) {
	search := &fakeTool{name: "search_experience", result: "Engineer."}
	// Provider loops forever requesting tools
	provider := &scriptedProvider{
		responses: []*llm.ChatResponse{
			{ToolCalls: []llm.ToolCall{toolCall("c1", "search_experience", "a")}},
			{ToolCalls: []llm.ToolCall{toolCall("c2", "search_experience", "b")}},
			{ToolCalls: []llm.ToolCall{toolCall("c3", "search_experience", "c")}},
		},
	}

	o := NewOrchestrator(newTestGateway(provider), NewDispatcher(search))

	_, err := o.GenerateResume(context.Background(), "role", RunOptions{MaxTurns: 2})
	require.Error(t, err)

	var limitErr *TurnLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 2, limitErr.MaxTurns)
	assert.Contains(t, err.Error(), "2 model turns")
}

func TestGenerateResumeParseFailure(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*llm.ChatResponse{
			{Text: "I am unable to produce a resume."},
		},
	}

	o := NewOrchestrator(newTestGateway(provider), NewDispatcher())

	_, err := o.GenerateResume(context.Background(), "role", RunOptions{})
	require.Error(t, err)

	var parseErr *GenerationParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestTranslateResume(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*llm.ChatResponse{
			{Text: validResumeJSON},
		},
	}

	o := NewOrchestrator(newTestGateway(provider), NewDispatcher())

	source := &models.StructuredResume{
		Language: "german",
		ResumeSection: models.ResumeSection{
			Title:               "Backend-Entwickler",
			ProfessionalSummary: "Baut zuverlässige Dienste.",
			Experience: []models.JobExperience{
				{Position: "Entwickler", Company: "Acme", Description: "Zahlungen."},
			},
			Skills: []models.Skill{{Name: "Go", Description: "Dienste."}},
		},
	}

	var stages []string
	translated, err := o.TranslateResume(context.Background(), "Senior Backend-Entwickler in Berlin gesucht", source, RunOptions{
		Progress: func(event models.ProgressEvent) {
			stages = append(stages, event.Stage)
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "english", translated.Language)
	assert.Equal(t, []string{models.StageTranslating, models.StageTranslated}, stages)

	// The turn must carry both the job description and the resume JSON
	require.Len(t, provider.requests, 1)
	require.Len(t, provider.requests[0].Messages, 1)
	turn := provider.requests[0].Messages[0].Text
	assert.Contains(t, turn, "Senior Backend-Entwickler in Berlin gesucht")
	assert.Contains(t, turn, "Backend-Entwickler")
	assert.Contains(t, turn, `"language"`)
}
