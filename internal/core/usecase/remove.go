package usecase

import (
	"context"
	"fmt"

	"github.com/ekovalyov/docuscan/internal/core/domain"
	"github.com/ekovalyov/docuscan/internal/core/ports"
)

// RemoveDocumentUseCase deletes a record together with its search index
// entry, stored blob, and aggregate contribution.
type RemoveDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	index   ports.SearchIndex
	stats   ports.StatsSink
}

func NewRemoveDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	index ports.SearchIndex,
	stats ports.StatsSink,
) *RemoveDocumentUseCase {
	return &RemoveDocumentUseCase{
		repo:    repo,
		storage: storage,
		index:   index,
		stats:   stats,
	}
}

func (uc *RemoveDocumentUseCase) Remove(ctx context.Context, id string) error {
	rec, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if err := uc.index.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove from search index: %w", err)
	}
	// Blob cleanup is best-effort: the canonical record is already gone.
	if rec.StoragePath != "" {
		if err := uc.storage.Delete(ctx, rec.StoragePath); err != nil && !domain.IsKind(err, domain.ErrDocumentNotFound) {
			return fmt.Errorf("delete stored file: %w", err)
		}
	}
	uc.stats.ApplyRemoval(id)
	return nil
}
