package models

// Output formats supported by the renderer
const (
	FormatLatex = "latex"
	FormatWord  = "word"
)

// GenerateRequest represents the request payload for resume generation.
// Immutable per call; UserID comes from the URL path.
type GenerateRequest struct {
	JobDescription        string `json:"job_description" validate:"required"`
	Model                 string `json:"model,omitempty"`
	Format                string `json:"format" validate:"required,oneof=latex word"`
	TargetLanguage        string `json:"target_language,omitempty"`
	IncludeProfilePicture bool   `json:"include_profile_picture,omitempty"`
}

// RecordEntry is a single historical job/skill record uploaded by a user.
// Company, description and type are the minimum set; dates are normalized
// server-side.
type RecordEntry struct {
	Type        string `json:"type" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location,omitempty"`
	Role        string `json:"role,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description" validate:"required"`
}

// RecordsUploadRequest represents the payload for uploading a user's records
type RecordsUploadRequest struct {
	Records []RecordEntry `json:"records" validate:"dive"`
}
