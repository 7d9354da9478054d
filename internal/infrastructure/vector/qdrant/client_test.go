package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"precedent/internal/core/domain"
)

func TestCountMissingCollectionIsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"status":{"error":"not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "precedents")
	count, err := client.Count(context.Background(), domain.CategoryCivil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 for missing collection, got %d", count)
	}
}

func TestCountReadsExactResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/precedents_criminal/points/count" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["exact"] != true {
			t.Errorf("expected exact count request, got %v", body)
		}
		_, _ = w.Write([]byte(`{"result":{"count":42}}`))
	}))
	defer server.Close()

	client := New(server.URL, "precedents")
	count, err := client.Count(context.Background(), domain.CategoryCriminal)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 42 {
		t.Fatalf("expected 42, got %d", count)
	}
}

func TestUpsertCreatesCollectionAndWritesNumericPointIDs(t *testing.T) {
	var createdVectors map[string]any
	var upserted struct {
		Points []struct {
			ID      int            `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/precedents_civil":
			var body struct {
				Vectors map[string]any `json:"vectors"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			createdVectors = body.Vectors
			_, _ = w.Write([]byte(`{"result":true}`))
		case r.Method == http.MethodPut && r.URL.Path == "/collections/precedents_civil/points":
			_ = json.NewDecoder(r.Body).Decode(&upserted)
			_, _ = w.Write([]byte(`{"result":{"status":"acknowledged"}}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := New(server.URL, "precedents")
	err := client.Upsert(context.Background(), domain.CategoryCivil, []domain.IndexedCase{
		{Position: 0, Vector: []float32{0.1, 0.2}, Title: "First", Verdict: "allowed", CaseID: "c-1"},
		{Position: 1, Vector: []float32{0.3, 0.4}, Title: "Second", Verdict: "dismissed", CaseID: "c-2"},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if createdVectors["size"] != float64(2) || createdVectors["distance"] != "Cosine" {
		t.Fatalf("unexpected collection schema %v", createdVectors)
	}
	if len(upserted.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(upserted.Points))
	}
	if upserted.Points[1].ID != 1 {
		t.Fatalf("expected position as point id, got %d", upserted.Points[1].ID)
	}
	if got := upserted.Points[1].Payload["doc_id"]; got != "doc_1" {
		t.Fatalf("expected doc_1 payload identifier, got %v", got)
	}
}

func TestQueryMapsPayloadIdentifiers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/precedents_traffic/points/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.91,"payload":{"doc_id":"doc_4","title":"Speeding"}},
			{"score":0.72,"payload":{"doc_id":"doc_0","title":"Red light"}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "precedents")
	hits, err := client.Query(context.Background(), domain.CategoryTraffic, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "doc_4" || hits[0].Score != 0.91 {
		t.Fatalf("unexpected first hit %+v", hits[0])
	}
}

func TestQueryMissingCollectionYieldsNoHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"status":{"error":"not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "precedents")
	hits, err := client.Query(context.Background(), domain.CategoryCivil, []float32{1}, 5)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if hits != nil {
		t.Fatalf("expected no hits for missing collection, got %v", hits)
	}
}

func TestDropToleratesMissingCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		http.Error(w, `{"status":{"error":"not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "precedents")
	if err := client.Drop(context.Background(), domain.CategoryCivil); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
}
