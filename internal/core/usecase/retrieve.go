package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"precedent/internal/core/domain"
	"precedent/internal/core/ports"
	"precedent/internal/observability/metrics"
)

// RetrieveUseCase is the hybrid query engine. Both ranking signals are
// looked up in parallel against read-only indexes and folded into one
// ranking by the configured combinator; when the embedding provider is
// unavailable the query is answered from the lexical index alone
// instead of failing.
type RetrieveUseCase struct {
	manager    *IndexManager
	embedder   ports.Embedder
	semantic   ports.SemanticIndex
	combinator ScoreCombinator
	metrics    *metrics.RetrievalMetrics
	log        *slog.Logger

	service    string
	candidates int
}

type RetrieveConfig struct {
	Service          string
	HybridCandidates int
}

func NewRetrieveUseCase(
	manager *IndexManager,
	embedder ports.Embedder,
	semantic ports.SemanticIndex,
	combinator ScoreCombinator,
	m *metrics.RetrievalMetrics,
	log *slog.Logger,
	cfg RetrieveConfig,
) *RetrieveUseCase {
	service := cfg.Service
	if service == "" {
		service = "retriever"
	}
	return &RetrieveUseCase{
		manager:    manager,
		embedder:   embedder,
		semantic:   semantic,
		combinator: combinator,
		metrics:    m,
		log:        log,
		service:    service,
		candidates: cfg.HybridCandidates,
	}
}

// Retrieve returns at most k records for the category, best match first.
// Unknown or empty categories yield an empty result, not an error; the
// only returned errors are caller-side cancellations.
func (uc *RetrieveUseCase) Retrieve(ctx context.Context, query string, category domain.Category, k int) ([]domain.CaseRecord, error) {
	start := time.Now()
	records, mode, err := uc.retrieve(ctx, query, category, k)
	uc.metrics.ObserveQuery(uc.service, string(category), mode, time.Since(start), err)
	return records, err
}

func (uc *RetrieveUseCase) retrieve(ctx context.Context, query string, category domain.Category, k int) ([]domain.CaseRecord, string, error) {
	if k <= 0 {
		k = 5
	}

	docs, lexical, semanticReady, ok := uc.manager.Snapshot(category)
	if !ok || len(docs) == 0 {
		return []domain.CaseRecord{}, uc.combinator.Name(), nil
	}

	limit := k
	if uc.candidates > limit {
		limit = uc.candidates
	}

	var (
		semanticHits []domain.ScoredPosition
		semanticErr  error
		lexicalHits  []domain.ScoredPosition
	)

	g, gctx := errgroup.WithContext(ctx)
	if semanticReady {
		g.Go(func() error {
			semanticHits, semanticErr = uc.querySemantic(gctx, query, category, limit)
			return nil
		})
	}
	if lexical != nil {
		g.Go(func() error {
			lexicalHits = lexical.Score(query, limit)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, uc.combinator.Name(), err
	}

	combinator := uc.combinator
	if !semanticReady || semanticErr != nil {
		if semanticErr != nil {
			uc.log.Warn("semantic_lookup_failed", "category", category, "error", semanticErr)
		}
		uc.metrics.LexicalFallback(uc.service, string(category))
		combinator = lexicalOnly{}
	}

	fused := combinator.Fuse(semanticHits, lexicalHits, k)

	records := make([]domain.CaseRecord, 0, len(fused))
	for _, sp := range fused {
		if sp.Position < 0 || sp.Position >= len(docs) {
			uc.metrics.DroppedIdentifier(uc.service, string(category))
			continue
		}
		records = append(records, docs[sp.Position])
	}
	return records, combinator.Name(), nil
}

// querySemantic embeds the query, searches the collection and resolves
// stored identifiers back to document positions. Malformed identifiers
// are dropped; partial results beat failing the whole query.
func (uc *RetrieveUseCase) querySemantic(ctx context.Context, query string, category domain.Category, limit int) ([]domain.ScoredPosition, error) {
	vector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := uc.semantic.Query(ctx, category, vector, limit)
	if err != nil {
		return nil, err
	}

	positions := make([]domain.ScoredPosition, 0, len(hits))
	for _, hit := range hits {
		position, err := domain.ParseDocPointID(hit.ID)
		if err != nil {
			uc.metrics.DroppedIdentifier(uc.service, string(category))
			uc.log.Debug("semantic_hit_dropped", "category", category, "id", hit.ID)
			continue
		}
		positions = append(positions, domain.ScoredPosition{Position: position, Score: hit.Score})
	}
	return positions, nil
}
