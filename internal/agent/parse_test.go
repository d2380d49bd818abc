package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResumeJSON = `{
  "language": "english",
  "resume_section": {
    "title": "Backend Engineer",
    "professional_summary": "Builds reliable distributed services in Go.",
    "experience": [
      {
        "position": "Senior Engineer",
        "company": "Acme",
        "location": "Berlin",
        "start_date": "2020-01",
        "end_date": "2023-06",
        "description": "Led a team of four building payment infrastructure."
      }
    ],
    "skills": [
      {"name": "Go", "description": "Built services handling 50k rps."}
    ]
  }
}`

func TestParseStructuredResumePlainJSON(t *testing.T) {
	resume, err := ParseStructuredResume(validResumeJSON)
	require.NoError(t, err)
	assert.Equal(t, "english", resume.Language)
	assert.Equal(t, "Backend Engineer", resume.ResumeSection.Title)
	require.Len(t, resume.ResumeSection.Experience, 1)
	assert.Equal(t, "Acme", resume.ResumeSection.Experience[0].Company)
	require.Len(t, resume.ResumeSection.Skills, 1)
	assert.True(t, resume.IsEnglish())
}

func TestParseStructuredResumeCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"json fence", "```json\n" + validResumeJSON + "\n```"},
		{"bare fence", "```\n" + validResumeJSON + "\n```"},
		{"padded", "\n\n  " + validResumeJSON + "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resume, err := ParseStructuredResume(tt.input)
			require.NoError(t, err)
			assert.Equal(t, "english", resume.Language)
		})
	}
}

func TestParseStructuredResumeExtractsFromProse(t *testing.T) {
	input := "Here is the resume you asked for:\n\n" + validResumeJSON + "\n\nLet me know if you need changes."
	resume, err := ParseStructuredResume(input)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", resume.ResumeSection.Title)
}

func TestParseStructuredResumeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "I could not generate a resume."},
		{"missing language", `{"resume_section": {"title": "x", "professional_summary": "y", "experience": [{"position": "a", "company": "b", "description": "c"}], "skills": [{"name": "Go", "description": "d"}]}}`},
		{"empty experience", `{"language": "english", "resume_section": {"title": "x", "professional_summary": "y", "experience": [], "skills": [{"name": "Go", "description": "d"}]}}`},
		{"empty skills", `{"language": "english", "resume_section": {"title": "x", "professional_summary": "y", "experience": [{"position": "a", "company": "b", "description": "c"}], "skills": []}}`},
		{"experience missing company", `{"language": "english", "resume_section": {"title": "x", "professional_summary": "y", "experience": [{"position": "a", "description": "c"}], "skills": [{"name": "Go", "description": "d"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStructuredResume(tt.input)
			require.Error(t, err)

			var parseErr *GenerationParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("{\"a\":1}"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
}

func TestExtractJSONObject(t *testing.T) {
	extracted, ok := extractJSONObject(`prefix {"a": {"b": 1}} suffix`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}}`, extracted)

	_, ok = extractJSONObject("no braces here")
	assert.False(t, ok)
}
