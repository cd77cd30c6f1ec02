package httpadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ekovalyov/docuscan/internal/core/domain"
	"github.com/ekovalyov/docuscan/internal/core/ports"
	"github.com/ekovalyov/docuscan/internal/observability/metrics"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	backpressureMaxConcurrent = 256
	backpressureWait          = 2 * time.Second
)

type Router struct {
	service  string
	ingestor ports.DocumentIngestor
	reader   ports.DocumentReader
	searcher ports.DocumentSearcher
	remover  ports.DocumentRemover
	exporter ports.DocumentExporter
	stats    ports.StatsProvider
	metrics  *metrics.HTTPServerMetrics

	maxUploadBytes int64
	rateLimitRPS   float64
	rateLimitBurst int
}

type RouterConfig struct {
	Service        string
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(
	cfg RouterConfig,
	ingestor ports.DocumentIngestor,
	reader ports.DocumentReader,
	searcher ports.DocumentSearcher,
	remover ports.DocumentRemover,
	exporter ports.DocumentExporter,
	stats ports.StatsProvider,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		service:        cfg.Service,
		ingestor:       ingestor,
		reader:         reader,
		searcher:       searcher,
		remover:        remover,
		exporter:       exporter,
		stats:          stats,
		metrics:        serverMetrics,
		maxUploadBytes: cfg.MaxUploadBytes,
		rateLimitRPS:   cfg.RateLimitRPS,
		rateLimitBurst: cfg.RateLimitBurst,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/v1/documents", rt.documents)
	mux.HandleFunc("/v1/documents/export", rt.exportDocuments)
	mux.HandleFunc("/v1/documents/", rt.documentByID)
	mux.HandleFunc("/v1/dashboard/stats", rt.dashboardStats)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, backpressureMaxConcurrent, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst, func() {
		rt.metrics.RecordRateLimited(rt.service)
	})
	handler = rt.metrics.Middleware(rt.service, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocument(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	meta, err := uploadMetadataFromRequest(r, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	rec, err := rt.ingestor.Upload(r.Context(), meta, fileHeader.Size, file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	rt.metrics.RecordUpload(rt.service, rec.MimeType)
	writeJSON(w, http.StatusAccepted, rec)
}

func uploadMetadataFromRequest(r *http.Request, filename, mimeType string) (domain.UploadMetadata, error) {
	meta := domain.UploadMetadata{
		OriginalFilename: filename,
		MimeType:         mimeType,
	}

	if v := strings.TrimSpace(r.FormValue("case_type")); v != "" {
		caseType, ok := domain.ParseCaseType(v)
		if !ok {
			return meta, domain.WrapError(domain.ErrValidation, "upload", fmt.Errorf("unknown case type %q", v))
		}
		meta.CaseType = &caseType
	}
	if v := strings.TrimSpace(r.FormValue("urgency_level")); v != "" {
		level, ok := domain.ParseUrgencyLevel(v)
		if !ok {
			return meta, domain.WrapError(domain.ErrValidation, "upload", fmt.Errorf("unknown urgency level %q", v))
		}
		meta.UrgencyLevel = &level
	}
	if v := strings.TrimSpace(r.FormValue("client_name")); v != "" {
		meta.ClientName = &v
	}
	return meta, nil
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	criteria, err := criteriaFromQuery(r, true)
	if err != nil {
		respondError(w, r, err)
		return
	}

	page, err := rt.searcher.Search(r.Context(), criteria)
	if err != nil {
		respondError(w, r, err)
		return
	}

	rt.metrics.RecordSearch(rt.service, page.Total)
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": page.Records,
		"total":     page.Total,
		"offset":    page.Offset,
		"limit":     page.Limit,
	})
}

func (rt *Router) exportDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	criteria, err := criteriaFromQuery(r, false)
	if err != nil {
		respondError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	filename, payload, err := rt.exporter.Export(r.Context(), criteria, format)
	if err != nil {
		respondError(w, r, err)
		return
	}

	rt.metrics.RecordExport(rt.service, strings.ToLower(format))
	w.Header().Set("Content-Type", exportContentType(filename))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func exportContentType(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".csv"):
		return "text/csv"
	case strings.HasSuffix(filename, ".json"):
		return "application/json"
	case strings.HasSuffix(filename, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if rest == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	if id, ok := strings.CutSuffix(rest, "/reprocess"); ok {
		rt.reprocessDocument(w, r, id)
		return
	}
	if strings.Contains(rest, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := rt.reader.GetByID(r.Context(), rest)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		if err := rt.remover.Remove(r.Context(), rest); err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) reprocessDocument(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}
	if err := rt.ingestor.Reprocess(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "queued"})
}

func (rt *Router) dashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.stats.Snapshot())
}

func criteriaFromQuery(r *http.Request, paged bool) (domain.SearchCriteria, error) {
	q := r.URL.Query()
	criteria := domain.SearchCriteria{Query: q.Get("q")}

	if v := strings.TrimSpace(q.Get("case_type")); v != "" {
		caseType, ok := domain.ParseCaseType(v)
		if !ok {
			return criteria, domain.WrapError(domain.ErrValidation, "search", fmt.Errorf("unknown case type %q", v))
		}
		criteria.CaseType = &caseType
	}
	if v := strings.TrimSpace(q.Get("urgency_level")); v != "" {
		level, ok := domain.ParseUrgencyLevel(v)
		if !ok {
			return criteria, domain.WrapError(domain.ErrValidation, "search", fmt.Errorf("unknown urgency level %q", v))
		}
		criteria.UrgencyLevel = &level
	}
	if v := strings.TrimSpace(q.Get("client")); v != "" {
		criteria.ClientName = &v
	}

	from, err := parseDateParam(q.Get("date_from"), false)
	if err != nil {
		return criteria, err
	}
	criteria.DateFrom = from

	to, err := parseDateParam(q.Get("date_to"), true)
	if err != nil {
		return criteria, err
	}
	criteria.DateTo = to

	if !paged {
		return criteria, nil
	}

	offset, err := parseIntParam(q.Get("offset"), 0)
	if err != nil {
		return criteria, err
	}
	limit, err := parseIntParam(q.Get("limit"), defaultPageLimit)
	if err != nil {
		return criteria, err
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	criteria.PageOffset = offset
	criteria.PageLimit = limit
	return criteria, nil
}

func parseDateParam(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "search", fmt.Errorf("invalid date %q", value))
	}
	t = t.UTC()
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseIntParam(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, domain.WrapError(domain.ErrValidation, "search", fmt.Errorf("invalid integer %q", value))
	}
	return n, nil
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
