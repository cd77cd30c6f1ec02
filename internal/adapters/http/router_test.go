package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ekovalyov/docuscan/internal/core/domain"
	"github.com/ekovalyov/docuscan/internal/observability/metrics"
)

type stubIngestor struct {
	meta        domain.UploadMetadata
	size        int64
	uploadErr   error
	reprocessed []string
}

func (s *stubIngestor) Upload(_ context.Context, meta domain.UploadMetadata, size int64, body io.Reader) (*domain.DocumentRecord, error) {
	s.meta = meta
	s.size = size
	_, _ = io.Copy(io.Discard, body)
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &domain.DocumentRecord{
		ID:               "doc-1",
		OriginalFilename: meta.OriginalFilename,
		MimeType:         meta.MimeType,
		Status:           domain.StatusReceived,
	}, nil
}

func (s *stubIngestor) Reprocess(_ context.Context, documentID string) error {
	s.reprocessed = append(s.reprocessed, documentID)
	return nil
}

type stubReader struct {
	rec *domain.DocumentRecord
	err error
}

func (s *stubReader) GetByID(context.Context, string) (*domain.DocumentRecord, error) {
	return s.rec, s.err
}

type stubPageSearcher struct {
	criteria domain.SearchCriteria
	page     *domain.SearchPage
	err      error
}

func (s *stubPageSearcher) Search(_ context.Context, criteria domain.SearchCriteria) (*domain.SearchPage, error) {
	s.criteria = criteria
	if s.err != nil {
		return nil, s.err
	}
	if s.page != nil {
		return s.page, nil
	}
	return &domain.SearchPage{Records: []domain.DocumentRecord{}}, nil
}

type stubRemover struct {
	removed []string
	err     error
}

func (s *stubRemover) Remove(_ context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.removed = append(s.removed, id)
	return nil
}

type stubExporter struct {
	filename string
	payload  []byte
	err      error
	format   string
}

func (s *stubExporter) Export(_ context.Context, _ domain.SearchCriteria, format string) (string, []byte, error) {
	s.format = format
	if s.err != nil {
		return "", nil, s.err
	}
	return s.filename, s.payload, nil
}

type stubStatsProvider struct {
	stats domain.AggregateStats
}

func (s *stubStatsProvider) Snapshot() domain.AggregateStats { return s.stats }

type routerFixture struct {
	ingestor *stubIngestor
	reader   *stubReader
	searcher *stubPageSearcher
	remover  *stubRemover
	exporter *stubExporter
	stats    *stubStatsProvider
	handler  http.Handler
}

func newRouterFixture(t *testing.T, mutate func(*RouterConfig)) *routerFixture {
	t.Helper()
	cfg := RouterConfig{
		Service:        "docuscan-api-test",
		MaxUploadBytes: 1 << 20,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	f := &routerFixture{
		ingestor: &stubIngestor{},
		reader:   &stubReader{},
		searcher: &stubPageSearcher{},
		remover:  &stubRemover{},
		exporter: &stubExporter{filename: "documents_export.csv", payload: []byte("id\n")},
		stats:    &stubStatsProvider{},
	}
	router := NewRouter(cfg, f.ingestor, f.reader, f.searcher, f.remover, f.exporter, f.stats,
		metrics.NewHTTPServerMetrics(cfg.Service))
	f.handler = router.Handler()
	return f
}

func multipartUpload(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadAccepted(t *testing.T) {
	f := newRouterFixture(t, nil)
	body, contentType := multipartUpload(t, map[string]string{
		"case_type":   "tax",
		"client_name": "Acme Corp",
	}, "return.txt", "tax return content")

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.ingestor.meta.OriginalFilename != "return.txt" {
		t.Fatalf("filename not forwarded: %+v", f.ingestor.meta)
	}
	if f.ingestor.meta.CaseType == nil || *f.ingestor.meta.CaseType != domain.CaseTypeTax {
		t.Fatalf("case type override not forwarded: %+v", f.ingestor.meta)
	}
	if f.ingestor.meta.ClientName == nil || *f.ingestor.meta.ClientName != "Acme Corp" {
		t.Fatalf("client override not forwarded: %+v", f.ingestor.meta)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["id"] != "doc-1" {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestUploadUnknownCaseType(t *testing.T) {
	f := newRouterFixture(t, nil)
	body, contentType := multipartUpload(t, map[string]string{"case_type": "maritime"}, "a.txt", "x")

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUploadMissingFilePart(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.reader.err = domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("id missing"))

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetDocument(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.reader.rec = &domain.DocumentRecord{ID: "doc-1", Status: domain.StatusIndexed}

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestListParsesCriteria(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/v1/documents?q=custody&case_type=family&urgency_level=high&client=Acme&date_from=2026-08-01&offset=5&limit=500", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := f.searcher.criteria
	if got.Query != "custody" {
		t.Fatalf("query not parsed: %+v", got)
	}
	if got.CaseType == nil || *got.CaseType != domain.CaseTypeFamily {
		t.Fatalf("case type not parsed: %+v", got)
	}
	if got.UrgencyLevel == nil || *got.UrgencyLevel != domain.UrgencyHigh {
		t.Fatalf("urgency not parsed: %+v", got)
	}
	if got.ClientName == nil || *got.ClientName != "Acme" {
		t.Fatalf("client not parsed: %+v", got)
	}
	if got.DateFrom == nil || !got.DateFrom.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date_from not parsed: %+v", got)
	}
	if got.PageOffset != 5 || got.PageLimit != maxPageLimit {
		t.Fatalf("paging not parsed, limit must cap at %d: %+v", maxPageLimit, got)
	}
}

func TestListDefaultsLimit(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.searcher.criteria.PageLimit != defaultPageLimit {
		t.Fatalf("expected default limit %d, got %d", defaultPageLimit, f.searcher.criteria.PageLimit)
	}
}

func TestListRejectsNegativeOffset(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents?offset=-1", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListRejectsBadDate(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents?date_from=yesterday", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestExportHeaders(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/export?format=CSV", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.exporter.format != "CSV" {
		t.Fatalf("format not forwarded verbatim, got %q", f.exporter.format)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "documents_export.csv") {
		t.Fatalf("unexpected disposition %q", cd)
	}
}

func TestExportDefaultsToCSV(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/export", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.exporter.format != "csv" {
		t.Fatalf("expected csv default, got %q", f.exporter.format)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.exporter.err = domain.WrapError(domain.ErrValidation, "export", errors.New(`unsupported format "pdf"`))

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/export?format=pdf", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteDocument(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/documents/doc-1", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(f.remover.removed) != 1 || f.remover.removed[0] != "doc-1" {
		t.Fatalf("remove not forwarded: %v", f.remover.removed)
	}
}

func TestReprocessDocument(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/doc-1/reprocess", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.ingestor.reprocessed) != 1 || f.ingestor.reprocessed[0] != "doc-1" {
		t.Fatalf("reprocess not forwarded: %v", f.ingestor.reprocessed)
	}
}

func TestReprocessRequiresPost(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1/reprocess", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestDashboardStats(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.stats.stats = domain.AggregateStats{TotalDocuments: 7}

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard/stats", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp domain.AggregateStats
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if resp.TotalDocuments != 7 {
		t.Fatalf("unexpected stats: %+v", resp)
	}
}

func TestTemporaryErrorMapsTo503(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.searcher.err = domain.WrapError(domain.ErrTemporary, "search index query", errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/v1/documents", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRateLimitReturns429(t *testing.T) {
	f := newRouterFixture(t, func(cfg *RouterConfig) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 1
	})

	first := httptest.NewRecorder()
	f.handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/v1/documents", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request must pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	f.handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/v1/documents", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("expected a Retry-After header")
	}
}

func TestRateLimitSkipsHealthz(t *testing.T) {
	f := newRouterFixture(t, func(cfg *RouterConfig) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 1
	})

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("health checks must never be limited, got %d", rec.Code)
		}
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a generated request id header")
	}
}

func TestUnknownNestedPathIs404(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/documents/a/b", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
