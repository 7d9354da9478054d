package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ScoredPosition pairs a document position with a relevance score from
// one ranking signal. Position is the record's index in its category's
// document store and is the join key shared by both indexes.
type ScoredPosition struct {
	Position int
	Score    float64
}

// SemanticHit is one nearest-neighbor result from the vector index.
type SemanticHit struct {
	ID    string
	Score float64
}

// IndexedCase is the triple ingested into the semantic index.
type IndexedCase struct {
	Position int
	Vector   []float32
	Title    string
	Verdict  string
	CaseID   string
}

// DocPointID derives the stable identifier stored with a vector point.
// The format must not change: persisted collections embed these ids and
// they are parsed back to positions at query time.
func DocPointID(position int) string {
	return fmt.Sprintf("doc_%d", position)
}

// ParseDocPointID recovers a document position from a stored identifier.
func ParseDocPointID(id string) (int, error) {
	raw, ok := strings.CutPrefix(id, "doc_")
	if !ok {
		return 0, fmt.Errorf("%w: malformed id %q", ErrIdentifierResolution, id)
	}
	position, err := strconv.Atoi(raw)
	if err != nil || position < 0 {
		return 0, fmt.Errorf("%w: malformed id %q", ErrIdentifierResolution, id)
	}
	return position, nil
}

// CategoryStatus reports the outcome of one category's initialization.
type CategoryStatus struct {
	Category      Category `json:"category"`
	Documents     int      `json:"documents"`
	LexicalReady  bool     `json:"lexical_ready"`
	SemanticReady bool     `json:"semantic_ready"`
	Err           error    `json:"-"`
}
