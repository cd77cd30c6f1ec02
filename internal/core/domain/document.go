package domain

import (
	"encoding/json"
	"sort"
	"time"
)

type DocumentStatus string

const (
	StatusReceived    DocumentStatus = "received"
	StatusExtracting  DocumentStatus = "extracting"
	StatusClassifying DocumentStatus = "classifying"
	StatusIndexed     DocumentStatus = "indexed"
	StatusFailed      DocumentStatus = "failed"
)

// Terminal reports whether a status admits no further pipeline transitions
// short of an explicit reprocess request.
func (s DocumentStatus) Terminal() bool {
	return s == StatusIndexed || s == StatusFailed
}

type CaseType string

const (
	CaseTypeBankruptcy  CaseType = "bankruptcy"
	CaseTypeCivil       CaseType = "civil"
	CaseTypeCorporate   CaseType = "corporate"
	CaseTypeCriminal    CaseType = "criminal"
	CaseTypeEmployment  CaseType = "employment"
	CaseTypeFamily      CaseType = "family"
	CaseTypeImmigration CaseType = "immigration"
	CaseTypeRealEstate  CaseType = "real_estate"
	CaseTypeTax         CaseType = "tax"

	// CaseTypeUnclassified marks a document for which no case type reached
	// the classifier's minimum score. It carries no confidence entry.
	CaseTypeUnclassified CaseType = "unclassified"
)

// CaseTypes returns the classifiable case types in lexicographic order.
// The order is load-bearing: it is the classifier's tie-break order.
func CaseTypes() []CaseType {
	out := []CaseType{
		CaseTypeBankruptcy,
		CaseTypeCivil,
		CaseTypeCorporate,
		CaseTypeCriminal,
		CaseTypeEmployment,
		CaseTypeFamily,
		CaseTypeImmigration,
		CaseTypeRealEstate,
		CaseTypeTax,
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func ParseCaseType(s string) (CaseType, bool) {
	for _, ct := range CaseTypes() {
		if string(ct) == s {
			return ct, true
		}
	}
	if s == string(CaseTypeUnclassified) {
		return CaseTypeUnclassified, true
	}
	return "", false
}

type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// Rank returns the position of the level in the total order
// low < medium < high < critical.
func (u UrgencyLevel) Rank() int {
	switch u {
	case UrgencyLow:
		return 0
	case UrgencyMedium:
		return 1
	case UrgencyHigh:
		return 2
	case UrgencyCritical:
		return 3
	default:
		return -1
	}
}

func UrgencyLevels() []UrgencyLevel {
	return []UrgencyLevel{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical}
}

func ParseUrgencyLevel(s string) (UrgencyLevel, bool) {
	for _, u := range UrgencyLevels() {
		if string(u) == s {
			return u, true
		}
	}
	return "", false
}

// MaxUrgency returns the higher of two levels. Upload-time urgency hints act
// as a floor through this: they can raise but never lower a computed level.
func MaxUrgency(a, b UrgencyLevel) UrgencyLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ClientName distinguishes "unspecified" from an empty string supplied by a
// caller. The zero value is unspecified.
type ClientName struct {
	Name      string
	Specified bool
}

func SpecifiedClient(name string) ClientName {
	return ClientName{Name: name, Specified: true}
}

// MarshalJSON renders an unspecified client as null so it is never conflated
// with an empty string.
func (c ClientName) MarshalJSON() ([]byte, error) {
	if !c.Specified {
		return []byte("null"), nil
	}
	return json.Marshal(c.Name)
}

func (c *ClientName) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ClientName{}
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*c = SpecifiedClient(name)
	return nil
}

// Axis names used as confidenceScores keys.
const (
	AxisCaseType = "case_type"
	AxisUrgency  = "urgency"
)

// DocumentRecord is the canonical classified document. It is immutable once
// status reaches a terminal state; only an explicit reprocess mutates it.
type DocumentRecord struct {
	ID               string             `json:"id"`
	OriginalFilename string             `json:"original_filename"`
	MimeType         string             `json:"mime_type"`
	FileSizeBytes    int64              `json:"file_size_bytes"`
	StoragePath      string             `json:"storage_path"`
	RawText          string             `json:"raw_text,omitempty"`
	CaseType         CaseType           `json:"case_type"`
	UrgencyLevel     UrgencyLevel       `json:"urgency_level"`
	ClientName       ClientName         `json:"client_name"`
	Tags             []string           `json:"tags,omitempty"`
	Entities         Entities           `json:"extracted_entities,omitempty"`
	ConfidenceScores map[string]float64 `json:"confidence_scores,omitempty"`
	Summary          string             `json:"summary,omitempty"`
	Status           DocumentStatus     `json:"status"`
	Error            string             `json:"error,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`

	// Supplied tracks which axes came from upload metadata. Supplied axes
	// are authoritative: the pipeline never overwrites them with inference
	// and emits no confidence entry for them.
	Supplied SuppliedFields `json:"-"`
}

// SuppliedFields flags upload-time overrides per classification axis.
type SuppliedFields struct {
	CaseType     bool
	ClientName   bool
	UrgencyLevel bool
}

// Entities maps an entity kind to the distinct values in first-seen order.
type Entities map[string][]string

// Entity kinds produced by the extractor.
const (
	EntityDates           = "dates"
	EntityMonetaryAmounts = "monetary_amounts"
	EntityPersons         = "persons"
	EntityOrganizations   = "organizations"
	EntityLegalCitations  = "legal_citations"
)

func EntityKinds() []string {
	return []string{
		EntityDates,
		EntityMonetaryAmounts,
		EntityPersons,
		EntityOrganizations,
		EntityLegalCitations,
	}
}

// UploadMetadata is what the upload endpoint supplies alongside file bytes.
// Explicit fields are authoritative and bypass inference for that axis.
type UploadMetadata struct {
	OriginalFilename string
	MimeType         string
	CaseType         *CaseType
	ClientName       *string
	UrgencyLevel     *UrgencyLevel
}
