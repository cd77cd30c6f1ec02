package searchindex

import (
	"context"
	"sort"
	"sync"

	"github.com/ekovalyov/docuscan/internal/core/domain"
)

// MemoryIndex keeps the index in process memory. Indexing the same id
// replaces the previous entry, removing an unknown id is a no-op.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]indexDocument
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[string]indexDocument)}
}

func (m *MemoryIndex) Index(_ context.Context, rec *domain.DocumentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[rec.ID] = buildDocument(rec)
	return nil
}

func (m *MemoryIndex) Remove(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, documentID)
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, criteria domain.SearchCriteria) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.docs))
	for id, doc := range m.docs {
		if doc.matches(criteria) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
