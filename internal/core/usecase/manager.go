package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"precedent/internal/core/domain"
	"precedent/internal/core/ports"
	"precedent/internal/observability/metrics"
)

// IndexManager owns the per-category index lifecycle: loading the
// document store, building or reusing the lexical index, and ingesting
// the semantic collection when it is empty or built from a different
// dataset revision. Queries read the structures it builds; nothing
// mutates them afterwards.
type IndexManager struct {
	loader       ports.CaseLoader
	embedder     ports.Embedder
	semantic     ports.SemanticIndex
	lexical      ports.LexicalIndexer
	fingerprints ports.FingerprintStore
	metrics      *metrics.RetrievalMetrics
	log          *slog.Logger

	service   string
	batchSize int

	initMu      sync.Mutex
	initialized bool

	stateMu  sync.RWMutex
	states   map[domain.Category]*categoryState
	statuses map[domain.Category]domain.CategoryStatus
}

type categoryState struct {
	docs          []domain.CaseRecord
	lexical       ports.LexicalSearcher
	semanticReady bool
}

type IndexManagerConfig struct {
	Service         string
	IngestBatchSize int
}

func NewIndexManager(
	loader ports.CaseLoader,
	embedder ports.Embedder,
	semantic ports.SemanticIndex,
	lexical ports.LexicalIndexer,
	fingerprints ports.FingerprintStore,
	m *metrics.RetrievalMetrics,
	log *slog.Logger,
	cfg IndexManagerConfig,
) *IndexManager {
	batchSize := cfg.IngestBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	service := cfg.Service
	if service == "" {
		service = "indexer"
	}
	return &IndexManager{
		loader:       loader,
		embedder:     embedder,
		semantic:     semantic,
		lexical:      lexical,
		fingerprints: fingerprints,
		metrics:      m,
		log:          log,
		service:      service,
		batchSize:    batchSize,
		states:       make(map[domain.Category]*categoryState),
		statuses:     make(map[domain.Category]domain.CategoryStatus),
	}
}

// Initialize prepares every category and reports per-category outcomes.
// It is idempotent: a second call against an unchanged dataset performs
// no ingestion and no rebuild. One category failing never blocks the
// others; its status carries the error and it serves empty results.
func (m *IndexManager) Initialize(ctx context.Context) (map[domain.Category]domain.CategoryStatus, error) {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.initialized {
		return m.copyStatuses(), nil
	}

	runID := uuid.NewString()
	m.log.Info("index_initialize_start", "run_id", runID)

	g, gctx := errgroup.WithContext(ctx)
	for _, category := range domain.Categories() {
		category := category
		g.Go(func() error {
			state, status := m.initializeCategory(gctx, category)
			m.stateMu.Lock()
			m.states[category] = state
			m.statuses[category] = status
			m.stateMu.Unlock()

			m.log.Info("category_initialized",
				"run_id", runID,
				"category", category,
				"documents", status.Documents,
				"lexical_ready", status.LexicalReady,
				"semantic_ready", status.SemanticReady,
				"error", status.Err,
			)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return m.copyStatuses(), err
	}
	m.initialized = true
	return m.copyStatuses(), nil
}

// Snapshot hands the query path a read-only view of one category.
func (m *IndexManager) Snapshot(category domain.Category) (docs []domain.CaseRecord, lexical ports.LexicalSearcher, semanticReady bool, ok bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	state, found := m.states[category]
	if !found {
		return nil, nil, false, false
	}
	return state.docs, state.lexical, state.semanticReady, true
}

func (m *IndexManager) initializeCategory(ctx context.Context, category domain.Category) (*categoryState, domain.CategoryStatus) {
	state := &categoryState{}
	status := domain.CategoryStatus{Category: category}

	docs, err := m.loader.Load(ctx, category)
	if err != nil {
		m.log.Warn("dataset_load_failed", "category", category, "error", err)
		status.Err = err
		return state, status
	}
	state.docs = docs
	status.Documents = len(docs)

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.IndexText()
	}

	modTime, err := m.loader.ModTime(category)
	if err != nil {
		// Without a source timestamp any cache must be assumed stale.
		modTime = time.Now()
	}
	lexical, err := m.lexical.BuildOrLoad(category, texts, modTime)
	if err != nil {
		m.log.Warn("lexical_index_failed", "category", category, "error", err)
	} else {
		state.lexical = lexical
		status.LexicalReady = true
	}

	if len(docs) > 0 {
		m.ensureSemantic(ctx, category, docs, state, &status)
	}
	return state, status
}

func (m *IndexManager) ensureSemantic(ctx context.Context, category domain.Category, docs []domain.CaseRecord, state *categoryState, status *domain.CategoryStatus) {
	count, err := m.semantic.Count(ctx, category)
	if err != nil {
		m.log.Warn("semantic_count_failed", "category", category, "error", err)
		status.Err = err
		return
	}

	fingerprint, fpErr := m.loader.Fingerprint(category)
	if count > 0 && fpErr == nil {
		stored, err := m.fingerprints.Get(category)
		if err != nil {
			m.log.Warn("fingerprint_read_failed", "category", category, "error", err)
		}
		if stored != "" && stored != fingerprint {
			m.log.Info("semantic_index_stale", "category", category, "indexed", count)
			if err := m.semantic.Drop(ctx, category); err != nil {
				m.log.Warn("semantic_drop_failed", "category", category, "error", err)
				status.Err = err
				return
			}
			count = 0
		}
	}

	if count == 0 {
		if err := m.ingest(ctx, category, docs); err != nil {
			m.log.Warn("semantic_ingest_failed", "category", category, "error", err)
			status.Err = err
			return
		}
		if fpErr == nil {
			if err := m.fingerprints.Set(category, fingerprint); err != nil {
				m.log.Warn("fingerprint_write_failed", "category", category, "error", err)
			}
		}
		count = len(docs)
	}

	m.log.Info("semantic_collection_ready", "category", category, "indexed", count)
	state.semanticReady = true
	status.SemanticReady = true
}

// ingest embeds and upserts the corpus in fixed-size sequential batches
// so provider rate and memory limits are respected.
func (m *IndexManager) ingest(ctx context.Context, category domain.Category, docs []domain.CaseRecord) error {
	for start := 0; start < len(docs); start += m.batchSize {
		end := start + m.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.IndexText()
		}

		vectors, err := m.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embed batch: got %d vectors for %d documents", len(vectors), len(batch))
		}

		cases := make([]domain.IndexedCase, len(batch))
		for i, doc := range batch {
			cases[i] = domain.IndexedCase{
				Position: start + i,
				Vector:   vectors[i],
				Title:    doc.Title,
				Verdict:  doc.Verdict,
				CaseID:   doc.CaseID,
			}
		}
		if err := m.semantic.Upsert(ctx, category, cases); err != nil {
			return err
		}

		m.metrics.IngestedDocuments(m.service, string(category), len(batch))
		m.log.Info("semantic_ingest_progress", "category", category, "indexed", end, "total", len(docs))
	}
	return nil
}

func (m *IndexManager) copyStatuses() map[domain.Category]domain.CategoryStatus {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	out := make(map[domain.Category]domain.CategoryStatus, len(m.statuses))
	for category, status := range m.statuses {
		out[category] = status
	}
	return out
}
