package renderer

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

var wordTemplate = template.Must(template.New("word").Funcs(template.FuncMap{
	"esc": xmlEscaper.Replace,
}).Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="40"/></w:rPr><w:t>{{esc .Contact.Name}}</w:t></w:r></w:p>
<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:i/></w:rPr><w:t>{{esc .Title}}</w:t></w:r></w:p>
<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>{{esc .ContactLine}}</w:t></w:r></w:p>
{{- if .Websites}}
<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>{{esc .Websites}}</w:t></w:r></w:p>
{{- end}}
<w:p><w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr><w:t>Professional Summary</w:t></w:r></w:p>
<w:p><w:r><w:t>{{esc .Summary}}</w:t></w:r></w:p>
<w:p><w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr><w:t>Skills</w:t></w:r></w:p>
{{- range .Skills}}
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>{{esc .Name}}</w:t></w:r><w:r><w:t xml:space="preserve"> -- {{esc .Description}}</w:t></w:r></w:p>
{{- end}}
<w:p><w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr><w:t>Experience</w:t></w:r></w:p>
{{- range .Experience}}
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>{{esc .Position}}</w:t></w:r><w:r><w:t xml:space="preserve"> ({{esc .StartDate}} -- {{esc .EndDate}})</w:t></w:r></w:p>
<w:p><w:r><w:rPr><w:i/></w:rPr><w:t>{{esc .Company}}, {{esc .Location}}</w:t></w:r></w:p>
<w:p><w:r><w:t>{{esc .Description}}</w:t></w:r></w:p>
{{- end}}
{{- if .Education}}
<w:p><w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr><w:t>Education and Certifications</w:t></w:r></w:p>
{{- range .Education}}
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>{{esc .Institution}}</w:t></w:r><w:r><w:t xml:space="preserve"> {{esc .Dates}}</w:t></w:r></w:p>
<w:p><w:r><w:t>{{esc .Location}} -- {{esc .Description}}</w:t></w:r></w:p>
{{- end}}
{{- end}}
</w:body>
</w:document>`))

// renderWord writes resume.docx into the output directory. The document is a
// minimal WordprocessingML package: content types, package rels and the
// document part.
func (r *Renderer) renderWord(in Input) ([]string, error) {
	section := in.Resume.ResumeSection
	contact := ExtractContact(in.Records)

	var contactParts []string
	for _, part := range []string{contact.Address, contact.Phone, contact.Email} {
		if part != "" {
			contactParts = append(contactParts, part)
		}
	}

	var websiteParts []string
	for _, site := range contact.Websites {
		label := site.Label
		if label == "" {
			label = site.URL
		}
		websiteParts = append(websiteParts, label+": "+site.URL)
	}

	data := struct {
		Contact     Contact
		ContactLine string
		Websites    string
		Title       string
		Summary     string
		Skills      interface{}
		Experience  interface{}
		Education   []EducationRow
	}{
		Contact:     contact,
		ContactLine: strings.Join(contactParts, " | "),
		Websites:    strings.Join(websiteParts, " | "),
		Title:       section.Title,
		Summary:     section.ProfessionalSummary,
		Skills:      section.Skills,
		Experience:  section.Experience,
		Education:   ExtractEducation(in.Records),
	}

	var document strings.Builder
	if err := wordTemplate.Execute(&document, data); err != nil {
		return nil, fmt.Errorf("failed to render word template: %w", err)
	}

	name := "resume.docx"
	path := filepath.Join(in.OutputDir, name)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	archive := zip.NewWriter(file)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", document.String()},
	}

	for _, part := range parts {
		writer, err := archive.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("failed to write docx part %s: %w", part.name, err)
		}
		if _, err := writer.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("failed to write docx part %s: %w", part.name, err)
		}
	}

	if err := archive.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize docx: %w", err)
	}

	return []string{name}, nil
}
