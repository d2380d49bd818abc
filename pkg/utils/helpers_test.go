package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidUserID(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		want   bool
	}{
		{name: "simple id", userID: "user_12345", want: true},
		{name: "uuid style", userID: "3f2b8a1c-9d4e-4f6a-b7c8-1a2b3c4d5e6f", want: true},
		{name: "guest rejected", userID: "guest", want: false},
		{name: "too short", userID: "short", want: false},
		{name: "too long", userID: strings.Repeat("a", 129), want: false},
		{name: "path traversal", userID: "../../etc/passwd", want: false},
		{name: "whitespace", userID: "user with spaces", want: false},
		{name: "empty", userID: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidUserID(tt.userID))
		})
	}
}

func TestGenerateIngestProcessID(t *testing.T) {
	id := GenerateIngestProcessID()
	assert.True(t, strings.HasPrefix(id, "ingest_"))
	assert.NotEqual(t, id, GenerateIngestProcessID())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500ms", FormatDuration(500*time.Millisecond))
	assert.Equal(t, "2.50s", FormatDuration(2500*time.Millisecond))
	assert.Equal(t, "1.5m", FormatDuration(90*time.Second))
	assert.Equal(t, "2.0h", FormatDuration(2*time.Hour))
}

func TestGetStringOrDefault(t *testing.T) {
	assert.Equal(t, "value", GetStringOrDefault("value", "fallback"))
	assert.Equal(t, "fallback", GetStringOrDefault("", "fallback"))
}
