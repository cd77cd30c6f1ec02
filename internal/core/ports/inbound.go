package ports

import (
	"context"
	"io"

	"github.com/ekovalyov/docuscan/internal/core/domain"
)

// DocumentIngestor is the inbound contract for upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, meta domain.UploadMetadata, size int64, body io.Reader) (*domain.DocumentRecord, error)
	Reprocess(ctx context.Context, documentID string) error
}

// DocumentProcessor is the inbound contract for asynchronous processing.
// ProcessByID runs one attempt; the caller retries a bounded number of times
// and finalizes with MarkFailed once attempts are exhausted.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
	MarkFailed(ctx context.Context, documentID string, cause error) error
}

// DocumentReader is the inbound read model for single records.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.DocumentRecord, error)
}

// DocumentRemover deletes a record together with its blob and index entry.
type DocumentRemover interface {
	Remove(ctx context.Context, id string) error
}

// DocumentSearcher serves filtered, paginated listings.
type DocumentSearcher interface {
	Search(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchPage, error)
}

// StatsProvider serves dashboard aggregates without recomputing on read.
type StatsProvider interface {
	Snapshot() domain.AggregateStats
}

// DocumentExporter serializes a full filtered match set.
type DocumentExporter interface {
	Export(ctx context.Context, criteria domain.SearchCriteria, format string) (filename string, payload []byte, err error)
}
