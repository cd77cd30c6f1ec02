package domain

// CaseTypeCount is one bucket of the case-type breakdown. Percentage is
// count/total*100 rounded to one decimal; a non-empty breakdown sums to
// 100 within ±0.05 per category.
type CaseTypeCount struct {
	CaseType   string  `json:"case_type"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// UrgencyCount is one bucket of the urgency breakdown.
type UrgencyCount struct {
	UrgencyLevel string  `json:"urgency_level"`
	Count        int64   `json:"count"`
	Percentage   float64 `json:"percentage"`
}

// AggregateStats is a derived, recomputable view over the record collection.
// It is never the source of truth: incremental maintenance must always match
// a full fold.
type AggregateStats struct {
	TotalDocuments        int64            `json:"total_documents"`
	HighPriorityCount     int64            `json:"high_priority_count"`
	CriticalPriorityCount int64            `json:"critical_priority_count"`
	ActiveClients         int64            `json:"active_clients"`
	CaseTypeDistribution  []CaseTypeCount  `json:"case_type_distribution"`
	UrgencyDistribution   []UrgencyCount   `json:"urgency_distribution"`
	DocumentsByDate       map[string]int64 `json:"documents_by_date"`
}
