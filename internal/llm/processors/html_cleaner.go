package processors

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// JobDescriptionCleaner normalizes job description input. Descriptions are
// often pasted straight from a posting page and arrive as HTML fragments;
// plain text passes through with whitespace normalization only.
type JobDescriptionCleaner struct {
	removeTags []string
}

// NewJobDescriptionCleaner creates a new cleaner instance
func NewJobDescriptionCleaner() *JobDescriptionCleaner {
	return &JobDescriptionCleaner{
		removeTags: []string{
			"script", "style", "noscript", "iframe", "object", "embed",
			"form", "input", "button", "select", "textarea",
			"nav", "header", "footer", "aside", "menu",
			"svg", "path", "g", "defs", "use", "symbol",
			"meta", "link", "title", "base", "img",
		},
	}
}

var htmlTagPattern = regexp.MustCompile(`<\s*(p|div|br|li|ul|ol|h[1-6]|span|table|strong|em|a)\b`)

// looksLikeHTML reports whether the input contains markup worth stripping
func looksLikeHTML(input string) bool {
	return htmlTagPattern.MatchString(input)
}

// Clean returns the job description as plain text. HTML markup is stripped
// and whitespace collapsed.
func (c *JobDescriptionCleaner) Clean(input string) (string, error) {
	if !looksLikeHTML(input) {
		return c.normalizeText(input), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		// Unparseable markup falls back to the raw text
		return c.normalizeText(input), nil
	}

	for _, tag := range c.removeTags {
		doc.Find(tag).Remove()
	}

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}

	return c.normalizeText(text), nil
}

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// normalizeText collapses runs of whitespace while preserving paragraph breaks
func (c *JobDescriptionCleaner) normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRun.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// EstimateTokens returns the approximate token count for the cleaned text
func (c *JobDescriptionCleaner) EstimateTokens(text string) int {
	// Rough estimation: ~4 characters per token
	return len(text) / 4
}
