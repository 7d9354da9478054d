package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"precedent/internal/config"
	"precedent/internal/core/ports"
	"precedent/internal/core/usecase"
	"precedent/internal/infrastructure/dataset"
	"precedent/internal/infrastructure/embedding/ollama"
	"precedent/internal/infrastructure/lexical"
	"precedent/internal/infrastructure/resilience"
	"precedent/internal/infrastructure/vector/memory"
	"precedent/internal/infrastructure/vector/qdrant"
	"precedent/internal/observability/metrics"
)

// App wires the retrieval engine. Retrieval callers only see Manager
// and Retriever; everything else is infrastructure behind ports.
type App struct {
	Config    config.Config
	Log       *slog.Logger
	Metrics   *metrics.RetrievalMetrics
	Manager   *usecase.IndexManager
	Retriever ports.PrecedentRetriever
}

func New(cfg config.Config, log *slog.Logger, service string) (*App, error) {
	loader := dataset.NewLoader(cfg.DatasetDir)

	lexicalStore, err := lexical.NewStore(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("init lexical store: %w", err)
	}
	fingerprints, err := dataset.NewFileFingerprintStore(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("init fingerprint store: %w", err)
	}

	// No qdrant endpoint means the brute-force in-memory index; the
	// collection then lives only as long as the process.
	var semantic ports.SemanticIndex
	if cfg.QdrantURL != "" {
		semantic = qdrant.New(cfg.QdrantURL, cfg.QdrantCollectionPrefix)
	} else {
		semantic = memory.NewIndex()
	}

	embedder := ollama.NewEmbedder(cfg.OllamaURL, cfg.OllamaEmbedModel, ollama.Options{
		RequestTimeout:     time.Duration(cfg.EmbedTimeoutSeconds) * time.Second,
		MaxCallsPerSecond:  cfg.EmbedMaxPerSecond,
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})

	retrievalMetrics := metrics.NewRetrievalMetrics(service)

	manager := usecase.NewIndexManager(
		loader, embedder, semantic, lexicalStore, fingerprints,
		retrievalMetrics, log,
		usecase.IndexManagerConfig{
			Service:         service,
			IngestBatchSize: cfg.IngestBatchSize,
		},
	)

	combinator := usecase.NewCombinator(cfg.FusionStrategy, cfg.FusionRRFK)
	retriever := usecase.NewRetrieveUseCase(
		manager, embedder, semantic, combinator,
		retrievalMetrics, log,
		usecase.RetrieveConfig{
			Service:          service,
			HybridCandidates: cfg.HybridCandidates,
		},
	)

	return &App{
		Config:    cfg,
		Log:       log,
		Metrics:   retrievalMetrics,
		Manager:   manager,
		Retriever: retriever,
	}, nil
}
