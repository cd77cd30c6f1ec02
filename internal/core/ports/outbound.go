package ports

import (
	"context"
	"io"

	"github.com/ekovalyov/docuscan/internal/core/domain"
)

// DocumentRepository persists the canonical DocumentRecord collection.
type DocumentRepository interface {
	Create(ctx context.Context, rec *domain.DocumentRecord) error
	GetByID(ctx context.Context, id string) (*domain.DocumentRecord, error)
	// UpdateStatus moves a record through the pipeline lifecycle without
	// touching classification fields.
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	// SaveClassified publishes the fully classified record in a single
	// statement: readers see either the pre-publish row or all
	// classification fields plus status=indexed, never a partial mix.
	SaveClassified(ctx context.Context, rec *domain.DocumentRecord) error
	ListByIDs(ctx context.Context, ids []string) ([]domain.DocumentRecord, error)
	// ForEach streams every record, used for aggregate recomputation.
	ForEach(ctx context.Context, fn func(domain.DocumentRecord) error) error
	Delete(ctx context.Context, id string) error
}

// ObjectStorage stores source document blobs.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue carries pipeline events between the api and worker processes.
// Received events are queue-grouped so exactly one worker processes each
// document; updated events fan out so every process can refresh its
// aggregate view.
type MessageQueue interface {
	PublishDocumentReceived(ctx context.Context, documentID string) error
	SubscribeDocumentReceived(ctx context.Context, handler func(context.Context, string) error) error
	PublishDocumentUpdated(ctx context.Context, documentID string) error
	SubscribeDocumentUpdated(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor is the boundary to the OCR/extraction step. Any non-success
// surfaces as an error the pipeline records as an extraction failure.
type TextExtractor interface {
	Extract(ctx context.Context, rec *domain.DocumentRecord) (string, error)
}

// SearchIndex is the boundary to the external search engine. It owns no
// storage: Search returns matching ids and the facade re-ranks and paginates.
type SearchIndex interface {
	Index(ctx context.Context, rec *domain.DocumentRecord) error
	Remove(ctx context.Context, documentID string) error
	Search(ctx context.Context, criteria domain.SearchCriteria) ([]string, error)
}

// StatsSink receives record deltas so the aggregate view stays in sync with
// every create, update, and removal.
type StatsSink interface {
	ApplyDelta(rec domain.DocumentRecord)
	ApplyRemoval(documentID string)
}

// EntityExtractor derives structured entities from raw text. Pure.
type EntityExtractor interface {
	Extract(text string) domain.Entities
}

// Classifier assigns case type and urgency with confidence scores.
type Classifier interface {
	Classify(text string, entities domain.Entities) (domain.CaseTypeResult, domain.UrgencyResult, error)
}

// Summarizer produces a bounded extractive summary. Deterministic.
type Summarizer interface {
	Summarize(text string) string
}

// Annotator derives tags and candidate client names.
type Annotator interface {
	Tags(text string, entities domain.Entities) []string
	Clients(entities domain.Entities) []string
}
