package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"betterresume/internal/logging"
	"betterresume/internal/vectorstore"
)

// SearchExperienceToolName is the identifier the model uses for retrieval
const SearchExperienceToolName = "search_experience"

// SearchExperienceTool retrieves the most relevant experience records for a
// query from the requesting user's collection. A tool instance is bound to
// one user for the duration of a run.
type SearchExperienceTool struct {
	store  *vectorstore.Store
	userID string
	topK   int
}

// NewSearchExperienceTool creates a retrieval tool bound to the given user
func NewSearchExperienceTool(store *vectorstore.Store, userID string, topK int) *SearchExperienceTool {
	return &SearchExperienceTool{
		store:  store,
		userID: userID,
		topK:   topK,
	}
}

func (t *SearchExperienceTool) Name() string {
	return SearchExperienceToolName
}

func (t *SearchExperienceTool) Description() string {
	return "Search the user's work history for experience relevant to a query. " +
		"Returns the most relevant records from the user's experience database."
}

func (t *SearchExperienceTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Skill, technology or responsibility to search the user's experience for",
			},
		},
		"required": []string{"query"},
	}
}

type searchArgs struct {
	Query string `json:"query"`
}

// Invoke runs the similarity search and returns the matching records as text
func (t *SearchExperienceTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var parsed searchArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "", fmt.Errorf("invalid search arguments: %w", err)
	}
	if strings.TrimSpace(parsed.Query) == "" {
		return "", fmt.Errorf("query must not be empty")
	}

	results, err := t.store.Query(ctx, t.userID, parsed.Query, t.topK)
	if err != nil {
		return "", err
	}

	logging.GetGlobalLogger().Debug("Experience search executed", map[string]interface{}{
		"user_id": t.userID,
		"query":   parsed.Query,
		"hits":    len(results),
	})

	if len(results) == 0 {
		return "No matching experience found.", nil
	}

	var sb strings.Builder
	for i, result := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(result.Content)
	}
	return sb.String(), nil
}
