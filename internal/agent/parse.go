package agent

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"betterresume/pkg/models"
)

var resumeValidator = validator.New()

// ParseStructuredResume decodes the model's final output into a structured
// resume. Markdown code fences are stripped, and if the output carries extra
// prose the outermost JSON object is extracted as a fallback. The decoded
// document is validated against the resume schema before being returned.
func ParseStructuredResume(output string) (*models.StructuredResume, error) {
	text := stripCodeFences(output)

	resume, err := decodeResume(text)
	if err == nil {
		return resume, nil
	}

	// Fallback: extract the outermost JSON object from surrounding prose
	if extracted, ok := extractJSONObject(text); ok {
		if resume, fallbackErr := decodeResume(extracted); fallbackErr == nil {
			return resume, nil
		}
	}

	return nil, &GenerationParseError{Reason: err.Error(), Output: output}
}

func decodeResume(text string) (*models.StructuredResume, error) {
	schemaLoader := gojsonschema.NewStringLoader(structuredResumeSchema)
	documentLoader := gojsonschema.NewStringLoader(text)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, err
	}

	if !result.Valid() {
		var reasons []string
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return nil, &GenerationParseError{Reason: strings.Join(reasons, "; "), Output: text}
	}

	var resume models.StructuredResume
	if err := json.Unmarshal([]byte(text), &resume); err != nil {
		return nil, err
	}

	if err := resumeValidator.Struct(&resume); err != nil {
		return nil, err
	}

	return &resume, nil
}

// stripCodeFences removes a surrounding markdown code block if present
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}

// extractJSONObject returns the substring between the first '{' and the last
// '}' in the text.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
