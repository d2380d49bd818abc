package utils

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// userIDPattern is the server-side guard against shared or guessable scopes
var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// GenerateRequestID generates a unique request ID for tracking
func GenerateRequestID() string {
	return uuid.New().String()
}

// GenerateIngestProcessID generates a process ID for background ingestion tasks
func GenerateIngestProcessID() string {
	return "ingest_" + uuid.New().String()
}

// ValidUserID reports whether the user ID is acceptable as a data scope.
// "guest" is rejected because it was historically a shared collection.
func ValidUserID(userID string) bool {
	if userID == "guest" {
		return false
	}
	return userIDPattern.MatchString(userID)
}

// FormatDuration formats a duration to a human-readable string
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// GetStringOrDefault returns the value if not empty, otherwise returns the default
func GetStringOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
