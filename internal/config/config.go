package config

import (
	"os"
	"strconv"
)

type Config struct {
	LogLevel    string
	MetricsPort string

	DatasetDir string
	CacheDir   string

	QdrantURL              string
	QdrantCollectionPrefix string

	OllamaURL        string
	OllamaEmbedModel string

	EmbedTimeoutSeconds int
	EmbedMaxPerSecond   float64

	IngestBatchSize  int
	RetrievalTopK    int
	FusionStrategy   string
	FusionRRFK       int
	HybridCandidates int
}

func Load() Config {
	return Config{
		LogLevel:    mustEnv("LOG_LEVEL", "info"),
		MetricsPort: mustEnv("METRICS_PORT", "9090"),

		DatasetDir: mustEnv("DATASET_DIR", "./data/datasets"),
		CacheDir:   mustEnv("CACHE_DIR", "./data/index_cache"),

		QdrantURL:              mustEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollectionPrefix: mustEnv("QDRANT_COLLECTION_PREFIX", "precedents"),

		OllamaURL:        mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaEmbedModel: mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		EmbedTimeoutSeconds: mustEnvInt("EMBED_TIMEOUT_SECONDS", 30),
		EmbedMaxPerSecond:   mustEnvFloat("EMBED_MAX_PER_SECOND", 10),

		IngestBatchSize:  mustEnvInt("INGEST_BATCH_SIZE", 100),
		RetrievalTopK:    mustEnvInt("RETRIEVAL_TOP_K", 5),
		FusionStrategy:   mustEnv("FUSION_STRATEGY", "semantic"),
		FusionRRFK:       mustEnvInt("FUSION_RRF_K", 60),
		HybridCandidates: mustEnvInt("HYBRID_CANDIDATES", 30),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
