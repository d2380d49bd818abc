package renderer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// latexEscape escapes LaTeX special characters in arbitrary text
func latexEscape(text string) string {
	var sb strings.Builder
	for _, ch := range text {
		switch ch {
		case '\\':
			sb.WriteString(`\textbackslash{}`)
		case '&':
			sb.WriteString(`\&`)
		case '%':
			sb.WriteString(`\%`)
		case '$':
			sb.WriteString(`\$`)
		case '#':
			sb.WriteString(`\#`)
		case '_':
			sb.WriteString(`\_`)
		case '{':
			sb.WriteString(`\{`)
		case '}':
			sb.WriteString(`\}`)
		case '~':
			sb.WriteString(`\textasciitilde{}`)
		case '^':
			sb.WriteString(`\textasciicircum{}`)
		default:
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}

var latexTemplate = template.Must(template.New("latex").Funcs(template.FuncMap{
	"esc": latexEscape,
}).Parse(`\documentclass[11pt]{article}
\usepackage[margin=1in]{geometry}
\usepackage{enumitem}
\usepackage[hidelinks]{hyperref}
\usepackage{titlesec}
\usepackage{parskip}
{{- if .ProfilePicture}}
\usepackage{graphicx}
{{- end}}
\setlength{\parindent}{0pt}
\begin{document}
\begin{center}
{{- if .ProfilePicture}}
\includegraphics[width=3cm]{{"{"}}{{.ProfilePicture}}{{"}"}}\\[0.3cm]
{{- end}}
\textbf{\LARGE {{esc .Contact.Name}}}\\
\textit{ {{- esc .Title -}} }\\
{{esc .Contact.Address}} \\ {{esc .Contact.Phone}} \\ {{esc .Contact.Email}}
{{- if .Contact.Websites}}
\\ {{range $i, $w := .Contact.Websites}}{{if $i}} | {{end}}\href{{"{"}}{{$w.URL}}{{"}"}}{{"{"}}{{esc $w.Label}}{{"}"}}{{end}}
{{- end}}
\end{center}
\vspace{0.5cm}
\section*{Professional Summary}
{{esc .Summary}}
\section*{Skills}
\begin{itemize}[leftmargin=*]
{{- range .Skills}}
\item \textbf{ {{- esc .Name -}} } -- {{esc .Description}}
{{- end}}
\end{itemize}
\section*{Experience}
{{- range .Experience}}
\textbf{ {{- esc .Position -}} } \hfill {{esc .StartDate}} -- {{esc .EndDate}}
\\{{esc .Company}}, {{esc .Location}}
\begin{itemize}[leftmargin=*]
\item {{esc .Description}}
\end{itemize}
{{- end}}
{{- if .Education}}
\section*{Education and Certifications}
{{- range .Education}}
\textbf{ {{- esc .Institution -}} } \hfill {{esc .Dates}}
\\{{esc .Location}} -- {{esc .Description}}
{{- end}}
{{- end}}
\end{document}
`))

// renderLatex writes resume.tex into the output directory
func (r *Renderer) renderLatex(in Input) ([]string, error) {
	section := in.Resume.ResumeSection

	data := struct {
		Contact        Contact
		Title          string
		Summary        string
		Skills         interface{}
		Experience     interface{}
		Education      []EducationRow
		ProfilePicture string
	}{
		Contact:    ExtractContact(in.Records),
		Title:      section.Title,
		Summary:    section.ProfessionalSummary,
		Skills:     section.Skills,
		Experience: section.Experience,
		Education:  ExtractEducation(in.Records),
	}

	if in.IncludeProfilePicture && in.ProfilePicturePath != "" {
		data.ProfilePicture = in.ProfilePicturePath
	}

	var sb strings.Builder
	if err := latexTemplate.Execute(&sb, data); err != nil {
		return nil, fmt.Errorf("failed to render latex template: %w", err)
	}

	name := "resume.tex"
	path := filepath.Join(in.OutputDir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", name, err)
	}

	return []string{name}, nil
}
