package tools

import (
	"context"
	"encoding/json"

	"betterresume/internal/records"
)

// LatestExperienceToolName identifies the latest-experience lookup tool
const LatestExperienceToolName = "get_latest_job_experience"

// LatestExperienceTool returns the user's most recent experience record so
// the resume does not open with a gap.
type LatestExperienceTool struct {
	store  *records.Store
	userID string
}

// NewLatestExperienceTool creates a latest-experience tool bound to the given user
func NewLatestExperienceTool(store *records.Store, userID string) *LatestExperienceTool {
	return &LatestExperienceTool{
		store:  store,
		userID: userID,
	}
}

func (t *LatestExperienceTool) Name() string {
	return LatestExperienceToolName
}

func (t *LatestExperienceTool) Description() string {
	return "Get the latest job experience for the user to avoid gaps in the resume."
}

func (t *LatestExperienceTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// Invoke returns the most recent record as JSON
func (t *LatestExperienceTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	latest, ok := t.store.Latest(t.userID)
	if !ok {
		return "No job experiences found.", nil
	}

	encoded, err := json.Marshal(latest)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
