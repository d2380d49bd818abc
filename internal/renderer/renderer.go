package renderer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"betterresume/internal/logging"
	"betterresume/pkg/models"
)

// Contact is the personal header information extracted from the user's
// records. Special rows carry it: the company column names the field and the
// description column holds the value.
type Contact struct {
	Name     string
	Address  string
	Phone    string
	Email    string
	Websites []Website
}

// Website is a labeled link in the resume header
type Website struct {
	URL   string
	Label string
}

// EducationRow is an education entry extracted from the user's records
type EducationRow struct {
	Institution string
	Location    string
	Description string
	Dates       string
}

// Input carries everything a render needs
type Input struct {
	Resume                *models.StructuredResume
	Records               []models.RecordEntry
	ProfilePicturePath    string
	IncludeProfilePicture bool
	OutputDir             string
}

// Renderer turns a structured resume into output documents
type Renderer struct{}

// New creates a renderer
func New() *Renderer {
	return &Renderer{}
}

// Render writes the resume in the requested format into the output directory
// and returns the generated file names. The directory is cleaned first so
// stale outputs from earlier runs never leak into the response.
func (r *Renderer) Render(format string, in Input) ([]string, error) {
	if in.Resume == nil {
		return nil, fmt.Errorf("no resume to render")
	}

	if err := CleanOutputDir(in.OutputDir); err != nil {
		return nil, err
	}

	var files []string
	var err error

	switch format {
	case models.FormatLatex:
		files, err = r.renderLatex(in)
	case models.FormatWord:
		files, err = r.renderWord(in)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	if err != nil {
		return nil, err
	}

	logging.GetGlobalLogger().Info("Resume rendered", map[string]interface{}{
		"format": format,
		"files":  files,
		"dir":    in.OutputDir,
	})

	return files, nil
}

// CleanOutputDir removes everything in the user's output directory except the
// cache file, creating the directory if needed.
func CleanOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".json") {
			// Keep cache and metadata files
			continue
		}
		os.RemoveAll(filepath.Join(dir, entry.Name()))
	}

	return nil
}

// ExtractContact pulls the header fields out of the user's records
func ExtractContact(records []models.RecordEntry) Contact {
	var contact Contact

	for _, rec := range records {
		switch strings.ToLower(rec.Company) {
		case "name":
			contact.Name = rec.Description
		case "address":
			contact.Address = rec.Description
		case "phone":
			contact.Phone = rec.Description
		case "email":
			contact.Email = rec.Description
		case "website":
			contact.Websites = append(contact.Websites, Website{
				URL:   rec.Description,
				Label: rec.Role,
			})
		}
	}

	return contact
}

// ExtractEducation pulls education entries out of the user's records
func ExtractEducation(records []models.RecordEntry) []EducationRow {
	var rows []EducationRow

	for _, rec := range records {
		if strings.ToLower(rec.Type) != "education" {
			continue
		}

		var dates string
		switch {
		case rec.StartDate != "" && rec.EndDate != "":
			dates = rec.StartDate + " -- " + rec.EndDate
		case rec.StartDate != "":
			dates = rec.StartDate + " -- Present"
		}

		rows = append(rows, EducationRow{
			Institution: rec.Company,
			Location:    rec.Location,
			Description: rec.Description,
			Dates:       dates,
		})
	}

	return rows
}
