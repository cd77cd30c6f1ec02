package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/ekovalyov/docuscan/internal/core/domain"
	"github.com/ekovalyov/docuscan/internal/core/ports"
)

// SearchDocumentsUseCase is the facade between structured filter criteria
// and the external search engine. Matching is delegated to the engine;
// ordering and pagination are guaranteed here: createdAt descending, id
// ascending on ties, offset-based pages.
type SearchDocumentsUseCase struct {
	repo  ports.DocumentRepository
	index ports.SearchIndex
}

func NewSearchDocumentsUseCase(repo ports.DocumentRepository, index ports.SearchIndex) *SearchDocumentsUseCase {
	return &SearchDocumentsUseCase{repo: repo, index: index}
}

func (uc *SearchDocumentsUseCase) Search(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchPage, error) {
	ids, err := uc.index.Search(ctx, criteria.WithoutPaging())
	if err != nil {
		return nil, fmt.Errorf("search index query: %w", err)
	}

	records, err := uc.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load matched records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})

	total := int64(len(records))
	offset := criteria.PageOffset
	if offset < 0 {
		offset = 0
	}
	limit := criteria.PageLimit
	if limit < 0 {
		limit = 0
	}

	// Offset past the match count is an empty page, never an error.
	var page []domain.DocumentRecord
	switch {
	case offset >= len(records):
		page = []domain.DocumentRecord{}
	case limit == 0 || offset+limit > len(records):
		page = records[offset:]
	default:
		page = records[offset : offset+limit]
	}

	return &domain.SearchPage{
		Records: page,
		Total:   total,
		Offset:  offset,
		Limit:   limit,
	}, nil
}

// GetByID exposes the single-record read model.
func (uc *SearchDocumentsUseCase) GetByID(ctx context.Context, id string) (*domain.DocumentRecord, error) {
	return uc.repo.GetByID(ctx, id)
}
