package domain

import "time"

// SearchCriteria is the structured filter set accepted by the search facade.
// Absent (zero/nil) fields impose no constraint; present fields are
// conjunctive. An empty Query matches every record.
type SearchCriteria struct {
	Query        string
	CaseType     *CaseType
	UrgencyLevel *UrgencyLevel
	ClientName   *string
	DateFrom     *time.Time
	DateTo       *time.Time
	PageOffset   int
	PageLimit    int
}

// WithoutPaging strips pagination so exports can fetch the full match set.
func (c SearchCriteria) WithoutPaging() SearchCriteria {
	out := c
	out.PageOffset = 0
	out.PageLimit = 0
	return out
}

// SearchPage is one page of matches plus the total match count. Records are
// ordered by createdAt descending, ties broken by id ascending.
type SearchPage struct {
	Records []DocumentRecord `json:"documents"`
	Total   int64            `json:"total"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
}
