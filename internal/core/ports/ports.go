package ports

import (
	"context"
	"time"

	"precedent/internal/core/domain"
)

// CaseLoader reads category dataset snapshots.
type CaseLoader interface {
	Load(ctx context.Context, category domain.Category) ([]domain.CaseRecord, error)
	ModTime(category domain.Category) (time.Time, error)
	Fingerprint(category domain.Category) (string, error)
}

// Embedder builds vectors for document batches and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SemanticIndex is a persistent per-category nearest-neighbor collection.
type SemanticIndex interface {
	Count(ctx context.Context, category domain.Category) (int, error)
	Upsert(ctx context.Context, category domain.Category, cases []domain.IndexedCase) error
	Query(ctx context.Context, category domain.Category, vector []float32, limit int) ([]domain.SemanticHit, error)
	Drop(ctx context.Context, category domain.Category) error
}

// LexicalSearcher ranks documents of one category by term relevance.
type LexicalSearcher interface {
	Score(query string, limit int) []domain.ScoredPosition
	Size() int
}

// LexicalIndexer builds a category's lexical searcher, reusing an on-disk
// cache when it is newer than the source dataset.
type LexicalIndexer interface {
	BuildOrLoad(category domain.Category, texts []string, sourceModTime time.Time) (LexicalSearcher, error)
}

// FingerprintStore remembers which dataset revision a semantic collection
// was ingested from.
type FingerprintStore interface {
	Get(category domain.Category) (string, error)
	Set(category domain.Category, fingerprint string) error
}

// PrecedentRetriever is the retrieval interface exposed to callers.
type PrecedentRetriever interface {
	Retrieve(ctx context.Context, query string, category domain.Category, k int) ([]domain.CaseRecord, error)
}
