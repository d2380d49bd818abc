package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"betterresume/internal/logging"
	"betterresume/internal/records"
	"betterresume/internal/vectorstore"
	"betterresume/pkg/models"
)

// Result summarizes a completed ingestion for a single user.
type Result struct {
	Rows int    `json:"rows"`
	Hash string `json:"hash"`
}

// Service ingests a user's uploaded records into the persistent record store
// and the similarity index. Re-ingestion replaces the user's previous corpus.
type Service struct {
	records *records.Store
	vectors *vectorstore.Store
}

func NewService(recordStore *records.Store, vectorStore *vectorstore.Store) *Service {
	return &Service{
		records: recordStore,
		vectors: vectorStore,
	}
}

// IngestRecords persists the records and rebuilds the user's similarity
// collection. The record store is updated first so generation sees a
// consistent hash even if indexing fails.
func (s *Service) IngestRecords(ctx context.Context, userID string, recs []models.RecordEntry) (*Result, error) {
	logger := logging.GetGlobalLogger()

	if len(recs) == 0 {
		return nil, fmt.Errorf("no records to ingest")
	}

	recs = NormalizeRecords(recs)

	info, err := s.records.Put(userID, recs)
	if err != nil {
		return nil, fmt.Errorf("failed to store records: %w", err)
	}

	docs := BuildDocuments(userID, recs)

	if err := s.vectors.DeleteUser(ctx, userID); err != nil {
		logger.Warn("Failed to drop previous similarity collection", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	if err := s.vectors.UpsertRecords(ctx, userID, docs); err != nil {
		return nil, fmt.Errorf("failed to index records: %w", err)
	}

	logger.Info("Records ingested", map[string]interface{}{
		"user_id": userID,
		"rows":    info.Rows,
		"hash":    info.Hash,
	})

	return &Result{Rows: info.Rows, Hash: info.Hash}, nil
}

// BuildDocuments converts record rows into similarity documents. Each row
// becomes one document with a stable per-user ID so re-ingestion overwrites
// rather than accumulates.
func BuildDocuments(userID string, recs []models.RecordEntry) []vectorstore.Document {
	docs := make([]vectorstore.Document, 0, len(recs))
	for i, rec := range recs {
		docs = append(docs, vectorstore.Document{
			ID:      fmt.Sprintf("%s_%d", userID, i),
			Content: formatRecord(rec),
			Metadata: map[string]string{
				"user_id": userID,
				"type":    rec.Type,
			},
		})
	}
	return docs
}

var (
	dayMonthYearPattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	monthYearPattern    = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
	yearMonthPattern    = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})$`)
)

// NormalizeRecords returns a copy of the records with start and end dates
// normalized, so the corpus hash does not depend on how the client spelled
// its dates.
func NormalizeRecords(recs []models.RecordEntry) []models.RecordEntry {
	normalized := make([]models.RecordEntry, len(recs))
	for i, rec := range recs {
		rec.StartDate = normalizeDate(rec.StartDate)
		rec.EndDate = normalizeDate(rec.EndDate)
		normalized[i] = rec
	}
	return normalized
}

// normalizeDate rewrites a date string to DD/MM/YYYY. "present", "current"
// and "now" collapse to "present"; anything that cannot be confidently parsed
// is left as-is.
func normalizeDate(value string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}

	switch strings.ToLower(s) {
	case "present", "current", "now":
		return "present"
	}

	if m := dayMonthYearPattern.FindStringSubmatch(s); m != nil {
		return pad2(m[1]) + "/" + pad2(m[2]) + "/" + m[3]
	}
	if m := monthYearPattern.FindStringSubmatch(s); m != nil {
		return "01/" + pad2(m[1]) + "/" + m[2]
	}
	if m := yearMonthPattern.FindStringSubmatch(s); m != nil {
		return "01/" + pad2(m[2]) + "/" + m[1]
	}

	return s
}

func pad2(digits string) string {
	if len(digits) == 1 {
		return "0" + digits
	}
	return digits
}

// formatRecord renders a record as "field: value" lines, one per populated
// field, in a fixed order.
func formatRecord(rec models.RecordEntry) string {
	var b strings.Builder
	writeField(&b, "type", rec.Type)
	writeField(&b, "company", rec.Company)
	writeField(&b, "location", rec.Location)
	writeField(&b, "role", rec.Role)
	writeField(&b, "start_date", rec.StartDate)
	writeField(&b, "end_date", rec.EndDate)
	writeField(&b, "description", rec.Description)
	return strings.TrimRight(b.String(), "\n")
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}
