package usecase

import (
	"sort"
	"strings"

	"precedent/internal/core/domain"
)

// ScoreCombinator folds the two ranking signals into one final ranking.
// The semantic and lexical lists arrive already ordered by their own
// scoring scales; the combinator decides how (or whether) to merge them.
type ScoreCombinator interface {
	Name() string
	Fuse(semantic, lexical []domain.ScoredPosition, limit int) []domain.ScoredPosition
}

const (
	StrategySemantic = "semantic"
	StrategyLexical  = "lexical"
	StrategyRRF      = "rrf"
)

// NewCombinator maps a configured strategy name to a combinator.
// Unknown names fall back to semantic-only, the engine's default policy.
func NewCombinator(strategy string, rrfK int) ScoreCombinator {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case StrategyRRF:
		return rrfCombinator{k: rrfK}
	case StrategyLexical:
		return lexicalOnly{}
	default:
		return semanticOnly{}
	}
}

type semanticOnly struct{}

func (semanticOnly) Name() string { return StrategySemantic }

func (semanticOnly) Fuse(semantic, _ []domain.ScoredPosition, limit int) []domain.ScoredPosition {
	return rankPositions(semantic, limit)
}

type lexicalOnly struct{}

func (lexicalOnly) Name() string { return StrategyLexical }

func (lexicalOnly) Fuse(_, lexical []domain.ScoredPosition, limit int) []domain.ScoredPosition {
	return rankPositions(lexical, limit)
}

// rrfCombinator applies reciprocal-rank fusion: each list contributes
// 1/(k+rank+1) per document, so documents present in both rankings are
// boosted without comparing the raw score scales.
type rrfCombinator struct {
	k int
}

func (rrfCombinator) Name() string { return StrategyRRF }

func (c rrfCombinator) Fuse(semantic, lexical []domain.ScoredPosition, limit int) []domain.ScoredPosition {
	k := c.k
	if k <= 0 {
		k = 60
	}

	acc := make(map[int]float64, len(semantic)+len(lexical))
	addList := func(list []domain.ScoredPosition) {
		for rank, sp := range list {
			acc[sp.Position] += 1.0 / float64(k+rank+1)
		}
	}
	addList(semantic)
	addList(lexical)

	fused := make([]domain.ScoredPosition, 0, len(acc))
	for position, score := range acc {
		fused = append(fused, domain.ScoredPosition{Position: position, Score: score})
	}
	return rankPositions(fused, limit)
}

// rankPositions dedupes by position (first occurrence wins), sorts by
// descending score with ties broken by ascending position, and trims.
func rankPositions(list []domain.ScoredPosition, limit int) []domain.ScoredPosition {
	seen := make(map[int]struct{}, len(list))
	out := make([]domain.ScoredPosition, 0, len(list))
	for _, sp := range list {
		if _, ok := seen[sp.Position]; ok {
			continue
		}
		seen[sp.Position] = struct{}{}
		out = append(out, sp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Position < out[j].Position
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}
