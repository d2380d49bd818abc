package models

import "time"

// GenerateResponse represents the response from a synchronous generation request
type GenerateResponse struct {
	Success bool              `json:"success"`
	Result  *StructuredResume `json:"result,omitempty"`
	Files   map[string]string `json:"files,omitempty"`
	Rows    int               `json:"rows"`
	Cached  bool              `json:"cached"`
	Error   string            `json:"error,omitempty"`
}

// IngestResponse represents the response from a records upload
type IngestResponse struct {
	Status       string `json:"status"`
	RowsIngested int    `json:"rows_ingested"`
	Hash         string `json:"hash"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
