package usecase

import (
	"testing"

	"precedent/internal/core/domain"
)

func TestNewCombinatorMapsStrategyNames(t *testing.T) {
	cases := []struct {
		strategy string
		want     string
	}{
		{"semantic", StrategySemantic},
		{"lexical", StrategyLexical},
		{"rrf", StrategyRRF},
		{" RRF ", StrategyRRF},
		{"", StrategySemantic},
		{"unknown", StrategySemantic},
	}
	for _, tc := range cases {
		if got := NewCombinator(tc.strategy, 60).Name(); got != tc.want {
			t.Fatalf("NewCombinator(%q) = %s, want %s", tc.strategy, got, tc.want)
		}
	}
}

func TestSemanticOnlyIgnoresLexicalSignal(t *testing.T) {
	semantic := []domain.ScoredPosition{{Position: 2, Score: 0.9}, {Position: 0, Score: 0.4}}
	lexical := []domain.ScoredPosition{{Position: 1, Score: 12.0}}

	fused := NewCombinator(StrategySemantic, 0).Fuse(semantic, lexical, 5)
	if len(fused) != 2 {
		t.Fatalf("expected 2 results, got %d", len(fused))
	}
	if fused[0].Position != 2 || fused[1].Position != 0 {
		t.Fatalf("expected semantic ordering [2 0], got [%d %d]", fused[0].Position, fused[1].Position)
	}
}

func TestRRFBoostsDocumentsPresentInBothRankings(t *testing.T) {
	// Doc 1 is mid-ranked in both lists; docs 0 and 2 each top one list.
	semantic := []domain.ScoredPosition{
		{Position: 0, Score: 0.95},
		{Position: 1, Score: 0.80},
	}
	lexical := []domain.ScoredPosition{
		{Position: 2, Score: 9.1},
		{Position: 1, Score: 7.3},
	}

	fused := NewCombinator(StrategyRRF, 60).Fuse(semantic, lexical, 3)
	if len(fused) != 3 {
		t.Fatalf("expected 3 results, got %d", len(fused))
	}
	if fused[0].Position != 1 {
		t.Fatalf("expected doc present in both lists ranked first, got %d", fused[0].Position)
	}
}

func TestRRFTieBrokenByAscendingPosition(t *testing.T) {
	// Same rank in disjoint lists gives identical reciprocal scores.
	semantic := []domain.ScoredPosition{{Position: 7, Score: 0.5}}
	lexical := []domain.ScoredPosition{{Position: 3, Score: 4.0}}

	fused := NewCombinator(StrategyRRF, 60).Fuse(semantic, lexical, 2)
	if fused[0].Position != 3 || fused[1].Position != 7 {
		t.Fatalf("expected positions [3 7], got [%d %d]", fused[0].Position, fused[1].Position)
	}
	if fused[0].Score != fused[1].Score {
		t.Fatalf("expected equal reciprocal scores, got %v and %v", fused[0].Score, fused[1].Score)
	}
}

func TestFuseTrimsToLimit(t *testing.T) {
	semantic := []domain.ScoredPosition{
		{Position: 0, Score: 0.9},
		{Position: 1, Score: 0.8},
		{Position: 2, Score: 0.7},
	}

	fused := NewCombinator(StrategySemantic, 0).Fuse(semantic, nil, 2)
	if len(fused) != 2 {
		t.Fatalf("expected limit applied, got %d results", len(fused))
	}
}

func TestRankPositionsDedupesFirstOccurrenceWins(t *testing.T) {
	list := []domain.ScoredPosition{
		{Position: 4, Score: 0.9},
		{Position: 4, Score: 0.1},
		{Position: 2, Score: 0.5},
	}

	ranked := rankPositions(list, 0)
	if len(ranked) != 2 {
		t.Fatalf("expected duplicate position collapsed, got %d results", len(ranked))
	}
	if ranked[0].Position != 4 || ranked[0].Score != 0.9 {
		t.Fatalf("expected first occurrence kept, got %+v", ranked[0])
	}
}
