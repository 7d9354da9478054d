package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"precedent/internal/core/domain"
)

type point struct {
	id       string
	position int
	vector   []float32
}

// Index is a brute-force cosine-similarity vector index kept entirely in
// memory. It implements the same port as the qdrant client and backs
// tests and setups without a vector database.
type Index struct {
	mu          sync.RWMutex
	collections map[domain.Category][]point
}

func NewIndex() *Index {
	return &Index{collections: make(map[domain.Category][]point)}
}

func (idx *Index) Count(_ context.Context, category domain.Category) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.collections[category]), nil
}

func (idx *Index) Upsert(_ context.Context, category domain.Category, cases []domain.IndexedCase) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	existing := idx.collections[category]
	if len(existing) > 0 && len(cases) > 0 && len(existing[0].vector) != len(cases[0].Vector) {
		return fmt.Errorf("vector dimension mismatch: collection %d, batch %d",
			len(existing[0].vector), len(cases[0].Vector))
	}
	for _, cs := range cases {
		existing = append(existing, point{
			id:       domain.DocPointID(cs.Position),
			position: cs.Position,
			vector:   cs.Vector,
		})
	}
	idx.collections[category] = existing
	return nil
}

func (idx *Index) Query(_ context.Context, category domain.Category, vector []float32, limit int) ([]domain.SemanticHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	points := idx.collections[category]
	if len(points) == 0 || limit <= 0 {
		return nil, nil
	}

	type scored struct {
		hit      domain.SemanticHit
		position int
	}
	ranked := make([]scored, 0, len(points))
	for _, p := range points {
		ranked = append(ranked, scored{
			hit:      domain.SemanticHit{ID: p.id, Score: cosine(p.vector, vector)},
			position: p.position,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].hit.Score != ranked[j].hit.Score {
			return ranked[i].hit.Score > ranked[j].hit.Score
		}
		return ranked[i].position < ranked[j].position
	})

	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	hits := make([]domain.SemanticHit, 0, len(ranked))
	for _, r := range ranked {
		hits = append(hits, r.hit)
	}
	return hits, nil
}

func (idx *Index) Drop(_ context.Context, category domain.Category) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.collections, category)
	return nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
