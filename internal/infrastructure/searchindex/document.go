// Package searchindex holds the adapters behind the search boundary: an
// HTTP client for an external engine and an in-memory engine for
// single-process deployments and tests. Both speak in document ids; loading
// and ordering the records stays with the search facade.
package searchindex

import (
	"strings"
	"time"

	"github.com/ekovalyov/docuscan/internal/core/domain"
)

// indexDocument is the projection of a record the engine matches against.
type indexDocument struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	CaseType         string    `json:"case_type"`
	UrgencyLevel     string    `json:"urgency_level"`
	ClientName       string    `json:"client_name"`
	Tags             []string  `json:"tags"`
	Summary          string    `json:"summary"`
	RawText          string    `json:"raw_text"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

func buildDocument(rec *domain.DocumentRecord) indexDocument {
	client := ""
	if rec.ClientName.Specified {
		client = rec.ClientName.Name
	}
	return indexDocument{
		ID:               rec.ID,
		OriginalFilename: rec.OriginalFilename,
		CaseType:         string(rec.CaseType),
		UrgencyLevel:     string(rec.UrgencyLevel),
		ClientName:       client,
		Tags:             rec.Tags,
		Summary:          rec.Summary,
		RawText:          rec.RawText,
		Status:           string(rec.Status),
		CreatedAt:        rec.CreatedAt.UTC(),
	}
}

// matches applies every filter conjunctively. The free-text query is a
// case-insensitive substring match over text, filename, summary, and tags;
// an empty query matches everything.
func (d indexDocument) matches(criteria domain.SearchCriteria) bool {
	if criteria.CaseType != nil && string(*criteria.CaseType) != d.CaseType {
		return false
	}
	if criteria.UrgencyLevel != nil && string(*criteria.UrgencyLevel) != d.UrgencyLevel {
		return false
	}
	if criteria.ClientName != nil && !strings.EqualFold(*criteria.ClientName, d.ClientName) {
		return false
	}
	if criteria.DateFrom != nil && d.CreatedAt.Before(criteria.DateFrom.UTC()) {
		return false
	}
	if criteria.DateTo != nil && d.CreatedAt.After(criteria.DateTo.UTC()) {
		return false
	}

	query := strings.ToLower(strings.TrimSpace(criteria.Query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(d.RawText), query) ||
		strings.Contains(strings.ToLower(d.OriginalFilename), query) ||
		strings.Contains(strings.ToLower(d.Summary), query) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}
