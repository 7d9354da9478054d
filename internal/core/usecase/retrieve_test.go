package usecase

import (
	"context"
	"errors"
	"testing"

	"precedent/internal/core/domain"
	"precedent/internal/observability/metrics"
)

type retrieveFixture struct {
	embedder *embedderFake
	semantic *semanticFake
	uc       *RetrieveUseCase
}

// newRetrieveFixture initializes a manager over 4 civil documents and
// wires the retrieve use case around it with the given combinator.
func newRetrieveFixture(t *testing.T, combinator ScoreCombinator, lexicalHits []domain.ScoredPosition) *retrieveFixture {
	t.Helper()

	loader := &loaderFake{
		docs:         map[domain.Category][]domain.CaseRecord{domain.CategoryCivil: civilDocs(4)},
		fingerprints: map[domain.Category]string{domain.CategoryCivil: "rev-1"},
	}
	embedder := &embedderFake{}
	semantic := newSemanticFake()
	lexical := &lexIndexerFake{hits: map[domain.Category][]domain.ScoredPosition{
		domain.CategoryCivil: lexicalHits,
	}}

	m := metrics.NewRetrievalMetrics("test")
	manager := NewIndexManager(loader, embedder, semantic, lexical, newFingerprintFake(), m, testLogger(),
		IndexManagerConfig{Service: "test"})
	if _, err := manager.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	uc := NewRetrieveUseCase(manager, embedder, semantic, combinator, m, testLogger(),
		RetrieveConfig{Service: "test", HybridCandidates: 10})
	return &retrieveFixture{embedder: embedder, semantic: semantic, uc: uc}
}

func TestRetrieveUnknownCategoryIsEmptyNotError(t *testing.T) {
	f := newRetrieveFixture(t, semanticOnly{}, nil)

	records, err := f.uc.Retrieve(context.Background(), "negligence", domain.CategoryTraffic, 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty result for category without documents, got %d", len(records))
	}
}

func TestRetrieveClampsKToAvailableDocuments(t *testing.T) {
	f := newRetrieveFixture(t, semanticOnly{}, nil)
	f.semantic.queryHits = []domain.SemanticHit{
		{ID: "doc_2", Score: 0.9},
		{ID: "doc_0", Score: 0.8},
		{ID: "doc_3", Score: 0.7},
		{ID: "doc_1", Score: 0.6},
	}

	records, err := f.uc.Retrieve(context.Background(), "breach of contract", domain.CategoryCivil, 10)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected all 4 documents for oversized k, got %d", len(records))
	}

	records, err = f.uc.Retrieve(context.Background(), "breach of contract", domain.CategoryCivil, 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 results for k=2, got %d", len(records))
	}
	if records[0].CaseID != "doc_2" || records[1].CaseID != "doc_0" {
		t.Fatalf("expected best-first ordering [doc_2 doc_0], got [%s %s]", records[0].CaseID, records[1].CaseID)
	}
}

func TestRetrieveFallsBackToLexicalWhenEmbeddingFails(t *testing.T) {
	lexicalHits := []domain.ScoredPosition{
		{Position: 3, Score: 6.2},
		{Position: 1, Score: 4.8},
	}
	f := newRetrieveFixture(t, semanticOnly{}, lexicalHits)
	f.embedder.setQueryErr(domain.WrapError(domain.ErrEmbeddingUnavailable, "ollama.embed", errors.New("connection refused")))

	records, err := f.uc.Retrieve(context.Background(), "speeding fine", domain.CategoryCivil, 5)
	if err != nil {
		t.Fatalf("expected degraded answer instead of error, got %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 lexical results, got %d", len(records))
	}
	if records[0].CaseID != "doc_3" || records[1].CaseID != "doc_1" {
		t.Fatalf("expected lexical ordering [doc_3 doc_1], got [%s %s]", records[0].CaseID, records[1].CaseID)
	}
}

func TestRetrieveDropsUnresolvableIdentifiers(t *testing.T) {
	f := newRetrieveFixture(t, semanticOnly{}, nil)
	f.semantic.queryHits = []domain.SemanticHit{
		{ID: "doc_1", Score: 0.9},
		{ID: "garbage", Score: 0.8},
		{ID: "doc_99", Score: 0.7},
		{ID: "doc_0", Score: 0.6},
	}

	records, err := f.uc.Retrieve(context.Background(), "appeal", domain.CategoryCivil, 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected malformed and out-of-range hits dropped, got %d records", len(records))
	}
	if records[0].CaseID != "doc_1" || records[1].CaseID != "doc_0" {
		t.Fatalf("expected [doc_1 doc_0], got [%s %s]", records[0].CaseID, records[1].CaseID)
	}
}

func TestRetrieveNeverDuplicatesRecordsUnderRRF(t *testing.T) {
	lexicalHits := []domain.ScoredPosition{
		{Position: 1, Score: 9.0},
		{Position: 2, Score: 5.0},
	}
	f := newRetrieveFixture(t, rrfCombinator{k: 60}, lexicalHits)
	f.semantic.queryHits = []domain.SemanticHit{
		{ID: "doc_1", Score: 0.9},
		{ID: "doc_0", Score: 0.8},
	}

	records, err := f.uc.Retrieve(context.Background(), "damages", domain.CategoryCivil, 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	seen := make(map[string]bool, len(records))
	for _, record := range records {
		if seen[record.CaseID] {
			t.Fatalf("duplicate record %s in result", record.CaseID)
		}
		seen[record.CaseID] = true
	}
	if len(records) != 3 {
		t.Fatalf("expected union of both signals (3 records), got %d", len(records))
	}
	if records[0].CaseID != "doc_1" {
		t.Fatalf("expected doc_1 first (present in both rankings), got %s", records[0].CaseID)
	}
}

func TestRetrieveDefaultsKWhenNonPositive(t *testing.T) {
	f := newRetrieveFixture(t, semanticOnly{}, nil)
	f.semantic.queryHits = []domain.SemanticHit{
		{ID: "doc_0", Score: 0.9},
		{ID: "doc_1", Score: 0.8},
	}

	records, err := f.uc.Retrieve(context.Background(), "verdict", domain.CategoryCivil, 0)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected defaulted k to return available hits, got %d", len(records))
	}
}

func TestRetrieveReportsCancellation(t *testing.T) {
	f := newRetrieveFixture(t, semanticOnly{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.Retrieve(ctx, "anything", domain.CategoryCivil, 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
