package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/ekovalyov/docuscan/internal/core/domain"
)

type fakeRepo struct {
	mu        sync.Mutex
	records   map[string]domain.DocumentRecord
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]domain.DocumentRecord{}}
}

func (r *fakeRepo) Create(_ context.Context, rec *domain.DocumentRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = *rec
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.DocumentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
	}
	out := rec
	return &out, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id %s", id))
	}
	rec.Status = status
	rec.Error = errMessage
	r.records[id] = rec
	return nil
}

func (r *fakeRepo) SaveClassified(_ context.Context, rec *domain.DocumentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id %s", rec.ID))
	}
	r.records[rec.ID] = *rec
	return nil
}

func (r *fakeRepo) ListByIDs(_ context.Context, ids []string) ([]domain.DocumentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.DocumentRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRepo) ForEach(_ context.Context, fn func(domain.DocumentRecord) error) error {
	r.mu.Lock()
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	recs := make([]domain.DocumentRecord, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, r.records[id])
	}
	r.mu.Unlock()

	for _, rec := range recs {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", fmt.Errorf("id %s", id))
	}
	delete(r.records, id)
	return nil
}

type fakeStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: map[string][]byte{}}
}

func (s *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = raw
	return nil
}

func (s *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.blobs[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "open stored file", fmt.Errorf("key %s", key))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete stored file", fmt.Errorf("key %s", key))
	}
	delete(s.blobs, key)
	return nil
}

type fakeQueue struct {
	mu       sync.Mutex
	received []string
	updated  []string
	failWith error
}

func (q *fakeQueue) PublishDocumentReceived(_ context.Context, documentID string) error {
	if q.failWith != nil {
		return q.failWith
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.received = append(q.received, documentID)
	return nil
}

func (q *fakeQueue) PublishDocumentUpdated(_ context.Context, documentID string) error {
	if q.failWith != nil {
		return q.failWith
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.updated = append(q.updated, documentID)
	return nil
}

func (q *fakeQueue) SubscribeDocumentReceived(context.Context, func(context.Context, string) error) error {
	return nil
}

func (q *fakeQueue) SubscribeDocumentUpdated(context.Context, func(context.Context, string) error) error {
	return nil
}

type fakeIndex struct {
	mu      sync.Mutex
	indexed map[string]domain.DocumentRecord
	removed []string
	results []string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[string]domain.DocumentRecord{}}
}

func (i *fakeIndex) Index(_ context.Context, rec *domain.DocumentRecord) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.indexed[rec.ID] = *rec
	return nil
}

func (i *fakeIndex) Remove(_ context.Context, documentID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.indexed, documentID)
	i.removed = append(i.removed, documentID)
	return nil
}

func (i *fakeIndex) Search(context.Context, domain.SearchCriteria) ([]string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string{}, i.results...), nil
}

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) Extract(context.Context, *domain.DocumentRecord) (string, error) {
	return s.text, s.err
}

type stubEntityExtractor struct {
	entities domain.Entities
}

func (s *stubEntityExtractor) Extract(string) domain.Entities {
	if s.entities == nil {
		return domain.Entities{}
	}
	return s.entities
}

type stubClassifier struct {
	caseResult domain.CaseTypeResult
	urgency    domain.UrgencyResult
	err        error
}

func (s *stubClassifier) Classify(string, domain.Entities) (domain.CaseTypeResult, domain.UrgencyResult, error) {
	return s.caseResult, s.urgency, s.err
}

type stubSummarizer struct {
	summary string
}

func (s *stubSummarizer) Summarize(string) string { return s.summary }

type stubAnnotator struct {
	tags    []string
	clients []string
}

func (s *stubAnnotator) Tags(string, domain.Entities) []string { return s.tags }
func (s *stubAnnotator) Clients(domain.Entities) []string      { return s.clients }

type stubStats struct {
	mu      sync.Mutex
	deltas  []string
	removed []string
}

func (s *stubStats) ApplyDelta(rec domain.DocumentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deltas = append(s.deltas, rec.ID)
}

func (s *stubStats) ApplyRemoval(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, documentID)
}

var errBoom = errors.New("boom")
