package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ekovalyov/docuscan/internal/core/domain"
	"github.com/ekovalyov/docuscan/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// Upload validates metadata, stores the blob, persists the initial record
// and enqueues it for processing. Validation failures create no record.
func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	meta domain.UploadMetadata,
	size int64,
	body io.Reader,
) (*domain.DocumentRecord, error) {
	if err := validateUpload(meta, body); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(meta.OriginalFilename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	rec := &domain.DocumentRecord{
		ID:               id,
		OriginalFilename: meta.OriginalFilename,
		MimeType:         meta.MimeType,
		FileSizeBytes:    size,
		StoragePath:      storageKey,
		CaseType:         domain.CaseTypeUnclassified,
		UrgencyLevel:     domain.UrgencyMedium,
		Tags:             []string{},
		Status:           domain.StatusReceived,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	applyOverrides(rec, meta)

	if err := uc.repo.Create(ctx, rec); err != nil {
		// Best effort: without a record the blob is unreachable.
		_ = uc.storage.Delete(ctx, storageKey)
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.queue.PublishDocumentReceived(ctx, rec.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return rec, nil
}

// Reprocess is the only sanctioned mutation path for a terminal record: it
// republishes the document onto the processing queue.
func (uc *IngestDocumentUseCase) Reprocess(ctx context.Context, documentID string) error {
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return err
	}
	if err := uc.queue.PublishDocumentReceived(ctx, documentID); err != nil {
		return fmt.Errorf("publish reprocess event: %w", err)
	}
	return nil
}

func validateUpload(meta domain.UploadMetadata, body io.Reader) error {
	if body == nil {
		return domain.WrapError(domain.ErrValidation, "upload", errors.New("empty request body"))
	}
	if strings.TrimSpace(meta.OriginalFilename) == "" {
		return domain.WrapError(domain.ErrValidation, "upload", errors.New("filename is required"))
	}
	if meta.CaseType != nil && *meta.CaseType == domain.CaseTypeUnclassified {
		return domain.WrapError(domain.ErrValidation, "upload", errors.New("explicit case type cannot be unclassified"))
	}
	return nil
}

func applyOverrides(rec *domain.DocumentRecord, meta domain.UploadMetadata) {
	if meta.CaseType != nil {
		rec.CaseType = *meta.CaseType
		rec.Supplied.CaseType = true
	}
	if meta.ClientName != nil {
		rec.ClientName = domain.SpecifiedClient(*meta.ClientName)
		rec.Supplied.ClientName = true
	}
	if meta.UrgencyLevel != nil {
		rec.UrgencyLevel = *meta.UrgencyLevel
		rec.Supplied.UrgencyLevel = true
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
