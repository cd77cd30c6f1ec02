package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ekovalyov/docuscan/internal/core/domain"
)

// HTTPIndex talks to an external search engine over its JSON API. The
// engine owns matching; this client only ships documents and criteria.
type HTTPIndex struct {
	baseURL    string
	collection string
	httpClient *http.Client
}

func NewHTTPIndex(baseURL, collection string) *HTTPIndex {
	return &HTTPIndex{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPIndex) Index(ctx context.Context, rec *domain.DocumentRecord) error {
	body, err := json.Marshal(buildDocument(rec))
	if err != nil {
		return fmt.Errorf("marshal index document: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/documents/%s", c.baseURL, c.collection, rec.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapUnavailable(fmt.Errorf("search index upsert request: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return wrapStatus(resp, "search index upsert")
	}
	return nil
}

func (c *HTTPIndex) Remove(ctx context.Context, documentID string) error {
	url := fmt.Sprintf("%s/collections/%s/documents/%s", c.baseURL, c.collection, documentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create remove request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapUnavailable(fmt.Errorf("search index remove request: %w", err))
	}
	defer resp.Body.Close()
	// A missing document is already removed.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 300 {
		return wrapStatus(resp, "search index remove")
	}
	return nil
}

func (c *HTTPIndex) Search(ctx context.Context, criteria domain.SearchCriteria) ([]string, error) {
	reqBody := map[string]any{
		"query": strings.TrimSpace(criteria.Query),
	}
	must := make([]map[string]any, 0, 5)
	if criteria.CaseType != nil {
		must = append(must, matchClause("case_type", string(*criteria.CaseType)))
	}
	if criteria.UrgencyLevel != nil {
		must = append(must, matchClause("urgency_level", string(*criteria.UrgencyLevel)))
	}
	if criteria.ClientName != nil {
		must = append(must, matchClause("client_name", *criteria.ClientName))
	}
	if criteria.DateFrom != nil || criteria.DateTo != nil {
		rng := map[string]any{}
		if criteria.DateFrom != nil {
			rng["gte"] = criteria.DateFrom.UTC().Format(time.RFC3339Nano)
		}
		if criteria.DateTo != nil {
			rng["lte"] = criteria.DateTo.UTC().Format(time.RFC3339Nano)
		}
		must = append(must, map[string]any{"key": "created_at", "range": rng})
	}
	if len(must) > 0 {
		reqBody["filter"] = map[string]any{"must": must}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/documents/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapUnavailable(fmt.Errorf("search index query request: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, wrapStatus(resp, "search index query")
	}

	var searchResp struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if searchResp.IDs == nil {
		return []string{}, nil
	}
	return searchResp.IDs, nil
}

func matchClause(key, value string) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

func wrapStatus(resp *http.Response, operation string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	err := fmt.Errorf("%s status: %s", operation, resp.Status)
	if msg := strings.TrimSpace(string(body)); msg != "" {
		err = fmt.Errorf("%s status: %s: %s", operation, resp.Status, msg)
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func wrapUnavailable(err error) error {
	return domain.WrapError(domain.ErrTemporary, "search index", err)
}
