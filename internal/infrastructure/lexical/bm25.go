package lexical

import (
	"math"
	"sort"
	"strings"
	"time"

	"precedent/internal/core/domain"
)

// Okapi BM25 parameters.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

type posting struct {
	Doc  int32
	Freq int32
}

// Index is a term-frequency ranking structure over one category's corpus.
// Fields are exported for gob serialization; the structure is immutable
// once built and safe for concurrent Score calls.
type Index struct {
	BuiltAt  time.Time
	DocLens  []int32
	AvgLen   float64
	Postings map[string][]posting
}

// Build tokenizes every document by whitespace and constructs the index.
// Empty-text documents contribute no postings and always score zero, but
// stay addressable by position.
func Build(texts []string) *Index {
	idx := &Index{
		BuiltAt:  time.Now().UTC(),
		DocLens:  make([]int32, len(texts)),
		Postings: make(map[string][]posting),
	}

	var totalLen int64
	for doc, text := range texts {
		tokens := tokenize(text)
		idx.DocLens[doc] = int32(len(tokens))
		totalLen += int64(len(tokens))

		freq := make(map[string]int32, len(tokens))
		for _, token := range tokens {
			freq[token]++
		}
		for term, count := range freq {
			idx.Postings[term] = append(idx.Postings[term], posting{Doc: int32(doc), Freq: count})
		}
	}
	if len(texts) > 0 {
		idx.AvgLen = float64(totalLen) / float64(len(texts))
	}

	for term := range idx.Postings {
		list := idx.Postings[term]
		sort.Slice(list, func(i, j int) bool { return list[i].Doc < list[j].Doc })
	}
	return idx
}

// Size is the number of indexed documents.
func (idx *Index) Size() int {
	return len(idx.DocLens)
}

// Score ranks every indexed document against the query, descending by
// BM25 score with ties broken by ascending position. limit <= 0 returns
// the full ranking.
func (idx *Index) Score(query string, limit int) []domain.ScoredPosition {
	n := idx.Size()
	if n == 0 {
		return nil
	}

	scores := make([]float64, n)
	// Query tokens are walked in order of appearance so repeated terms
	// contribute once per occurrence, matching Okapi scoring.
	for _, term := range tokenize(query) {
		list, ok := idx.Postings[term]
		if !ok {
			continue
		}
		idf := idfOkapi(n, len(list))
		for _, p := range list {
			tf := float64(p.Freq)
			norm := 1 - bm25B + bm25B*float64(idx.DocLens[p.Doc])/idx.AvgLen
			scores[p.Doc] += idf * tf * (bm25K1 + 1) / (tf + bm25K1*norm)
		}
	}

	ranked := make([]domain.ScoredPosition, n)
	for doc, score := range scores {
		ranked[doc] = domain.ScoredPosition{Position: doc, Score: score}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Position < ranked[j].Position
	})

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}

func idfOkapi(docCount, docFreq int) float64 {
	return math.Log(1 + (float64(docCount)-float64(docFreq)+0.5)/(float64(docFreq)+0.5))
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Fields(strings.ToLower(text))
}
