package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"precedent/internal/core/domain"
)

// Client talks to qdrant over its HTTP API, one collection per category.
// Qdrant point ids must be numeric or UUID, so the document position is
// the point id and the contractual "doc_<position>" identifier travels
// in the payload, where query results read it back from.
type Client struct {
	baseURL    string
	prefix     string
	httpClient *http.Client

	ensureMu sync.Mutex
	ensured  map[domain.Category]int
}

func New(baseURL, collectionPrefix string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		prefix:     collectionPrefix,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		ensured:    make(map[domain.Category]int),
	}
}

func (c *Client) collection(category domain.Category) string {
	return fmt.Sprintf("%s_%s", c.prefix, category)
}

// Count returns the exact point count; a collection that does not exist
// yet counts as empty.
func (c *Client) Count(ctx context.Context, category domain.Category) (int, error) {
	url := fmt.Sprintf("%s/collections/%s/points/count", c.baseURL, c.collection(category))
	resp, err := c.postJSON(ctx, url, map[string]any{"exact": true})
	if err != nil {
		return 0, fmt.Errorf("qdrant count request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if resp.StatusCode >= 300 {
		return 0, statusError("count", resp)
	}

	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&countResp); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return countResp.Result.Count, nil
}

// Upsert writes one ingestion batch. The collection is created on first
// use with the observed vector size; creation is idempotent.
func (c *Client) Upsert(ctx context.Context, category domain.Category, cases []domain.IndexedCase) error {
	if len(cases) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, category, len(cases[0].Vector)); err != nil {
		return err
	}

	type point struct {
		ID      int            `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(cases))
	for _, cs := range cases {
		points = append(points, point{
			ID:     cs.Position,
			Vector: cs.Vector,
			Payload: map[string]any{
				"doc_id":  domain.DocPointID(cs.Position),
				"title":   cs.Title,
				"verdict": cs.Verdict,
				"case_id": cs.CaseID,
			},
		})
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection(category))
	resp, err := c.putJSON(ctx, url, map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError("upsert", resp)
	}
	return nil
}

// Query runs a nearest-neighbor search. A missing collection yields no
// hits rather than an error so uninitialized categories read as empty.
func (c *Client) Query(ctx context.Context, category domain.Category, vector []float32, limit int) ([]domain.SemanticHit, error) {
	reqBody := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection(category))
	resp, err := c.postJSON(ctx, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, statusError("search", resp)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.SemanticHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.SemanticHit{
			ID:    getStringPayload(r.Payload, "doc_id"),
			Score: r.Score,
		})
	}
	return out, nil
}

// Drop deletes the category's collection. Used when the source dataset
// fingerprint changed and the collection must be re-ingested.
func (c *Client) Drop(ctx context.Context, category domain.Category) error {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection(category))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create drop request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant drop request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return statusError("drop", resp)
	}

	c.ensureMu.Lock()
	delete(c.ensured, category)
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, category domain.Category, vectorSize int) error {
	c.ensureMu.Lock()
	if size, ok := c.ensured[category]; ok && size == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection(category))
	resp, err := c.putJSON(ctx, url, reqBody)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 when it already exists.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return statusError("ensure collection", resp)
	}

	c.ensureMu.Lock()
	c.ensured[category] = vectorSize
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) postJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	return c.doJSON(ctx, http.MethodPost, url, body)
}

func (c *Client) putJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	return c.doJSON(ctx, http.MethodPut, url, body)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
	}
	return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
