package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"precedent/internal/core/domain"
	"precedent/internal/infrastructure/resilience"
)

// Embedder maps text to fixed-dimension vectors via the ollama embed API.
// Calls carry a per-request timeout and run through an optional rate
// limiter and resilience executor; every failure surfaces to callers as
// ErrEmbeddingUnavailable so the retrieval layer can fall back to the
// lexical index.
type Embedder struct {
	baseURL    string
	model      string
	httpClient *http.Client

	timeout  time.Duration
	limiter  *rate.Limiter
	executor *resilience.Executor
}

type Options struct {
	RequestTimeout     time.Duration
	MaxCallsPerSecond  float64
	ResilienceExecutor *resilience.Executor
}

func NewEmbedder(baseURL, model string, options Options) *Embedder {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if options.MaxCallsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.MaxCallsPerSecond), 1)
	}

	return &Embedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout + 5*time.Second},
		timeout:    timeout,
		limiter:    limiter,
		executor:   options.ResilienceExecutor,
	}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed rate wait", err)
		}
	}

	request := map[string]any{
		"model": e.model,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	call := func(callCtx context.Context) error {
		timeoutCtx, cancel := context.WithTimeout(callCtx, e.timeout)
		defer cancel()
		return e.postJSON(timeoutCtx, "/api/embed", request, &response, "embed")
	}

	var err error
	if e.executor != nil {
		err = e.executor.Execute(ctx, "ollama.embed", call, classifyEmbedError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed batch", err)
	}
	if len(response.Embeddings) != len(texts) {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed batch",
			fmt.Errorf("got %d embeddings for %d texts", len(response.Embeddings), len(texts)))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed query",
			fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

func (e *Embedder) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
