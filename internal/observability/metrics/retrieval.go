package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RetrievalMetrics instruments index initialization and query traffic.
type RetrievalMetrics struct {
	registry *prometheus.Registry

	queriesTotal    *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	fallbackTotal   *prometheus.CounterVec
	ingestedDocs    *prometheus.CounterVec
	droppedIDsTotal *prometheus.CounterVec
}

func NewRetrievalMetrics(service string) *RetrievalMetrics {
	registry := prometheus.NewRegistry()

	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "precedent",
			Subsystem: "retrieval",
			Name:      "queries_total",
			Help:      "Total retrieval queries by category, ranking mode and status.",
		},
		[]string{"service", "category", "mode", "status"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "precedent",
			Subsystem: "retrieval",
			Name:      "query_duration_seconds",
			Help:      "Retrieval latency in seconds by category.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "category"},
	)
	fallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "precedent",
			Subsystem: "retrieval",
			Name:      "lexical_fallback_total",
			Help:      "Queries answered from the lexical index because embeddings were unavailable.",
		},
		[]string{"service", "category"},
	)
	ingestedDocs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "precedent",
			Subsystem: "index",
			Name:      "ingested_documents_total",
			Help:      "Documents ingested into the semantic index by category.",
		},
		[]string{"service", "category"},
	)
	droppedIDsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "precedent",
			Subsystem: "retrieval",
			Name:      "dropped_identifiers_total",
			Help:      "Semantic hits dropped because their identifier resolved to no record.",
		},
		[]string{"service", "category"},
	)

	registry.MustRegister(queriesTotal, queryDuration, fallbackTotal, ingestedDocs, droppedIDsTotal)

	return &RetrievalMetrics{
		registry:        registry,
		queriesTotal:    queriesTotal,
		queryDuration:   queryDuration,
		fallbackTotal:   fallbackTotal,
		ingestedDocs:    ingestedDocs,
		droppedIDsTotal: droppedIDsTotal,
	}
}

func (m *RetrievalMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *RetrievalMetrics) ObserveQuery(service, category, mode string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.queriesTotal.WithLabelValues(service, category, mode, status).Inc()
	m.queryDuration.WithLabelValues(service, category).Observe(duration.Seconds())
}

func (m *RetrievalMetrics) LexicalFallback(service, category string) {
	m.fallbackTotal.WithLabelValues(service, category).Inc()
}

func (m *RetrievalMetrics) IngestedDocuments(service, category string, count int) {
	m.ingestedDocs.WithLabelValues(service, category).Add(float64(count))
}

func (m *RetrievalMetrics) DroppedIdentifier(service, category string) {
	m.droppedIDsTotal.WithLabelValues(service, category).Inc()
}
