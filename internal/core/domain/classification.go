package domain

// CaseTypeResult is the tagged outcome of case-type classification. When
// Classified is false the document is unclassified and Confidence carries no
// meaning; callers must not emit a case_type confidence entry for it.
type CaseTypeResult struct {
	Classified bool
	CaseType   CaseType
	Confidence float64
}

func ClassifiedAs(ct CaseType, confidence float64) CaseTypeResult {
	return CaseTypeResult{Classified: true, CaseType: ct, Confidence: confidence}
}

func Unclassified() CaseTypeResult {
	return CaseTypeResult{CaseType: CaseTypeUnclassified}
}

// UrgencyResult is always defined; Level defaults to medium upstream when the
// text yields no signal at all.
type UrgencyResult struct {
	Level      UrgencyLevel
	Confidence float64
}

// Classification bundles everything the processing pipeline derives from raw
// text before the record builder merges in upload metadata.
type Classification struct {
	CaseType CaseTypeResult
	Urgency  UrgencyResult
	Entities Entities
	Tags     []string
	Summary  string
	Clients  []string
}
