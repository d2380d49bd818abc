package models

import "strings"

// StructuredResume is the terminal artifact of a generation run: the complete,
// schema-constrained resume the model is forced to emit.
type StructuredResume struct {
	Language      string        `json:"language" validate:"required"`
	ResumeSection ResumeSection `json:"resume_section" validate:"required"`
}

// ResumeSection is the main content of a generated resume
type ResumeSection struct {
	Title               string          `json:"title" validate:"required"`
	ProfessionalSummary string          `json:"professional_summary" validate:"required"`
	Experience          []JobExperience `json:"experience" validate:"required,min=1,dive"`
	Skills              []Skill         `json:"skills" validate:"required,min=1,dive"`
	Education           []Education     `json:"education" validate:"dive"`
}

// JobExperience represents one tailored work-experience entry
type JobExperience struct {
	Position    string `json:"position" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description" validate:"required"`
}

// Skill represents a skill or technology with an impact-oriented description
type Skill struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// Education represents one educational qualification
type Education struct {
	Institution string `json:"institution" validate:"required"`
	Degree      string `json:"degree"`
	Dates       string `json:"dates"`
}

// IsEnglish reports whether the resume language is the canonical English code.
// The translation pass runs only when this is false.
func (r *StructuredResume) IsEnglish() bool {
	return strings.EqualFold(strings.TrimSpace(r.Language), "en")
}
