package lexical

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"precedent/internal/core/domain"
	"precedent/internal/core/ports"
)

// Store caches built indexes on disk, one gob artifact per category.
// A cached artifact is only trusted when its modification time is
// strictly after the source dataset's; anything else is rebuilt.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lexical cache dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) cachePath(category domain.Category) string {
	return filepath.Join(s.dir, fmt.Sprintf("bm25_%s.gob", category))
}

// BuildOrLoad returns the cached index when it is fresh, otherwise builds
// from texts and persists the result. Cache failures are never fatal: a
// corrupt or stale artifact just means a rebuild.
func (s *Store) BuildOrLoad(category domain.Category, texts []string, sourceModTime time.Time) (ports.LexicalSearcher, error) {
	if cached := s.loadCached(category, sourceModTime, len(texts)); cached != nil {
		return cached, nil
	}

	idx := Build(texts)
	if err := s.persist(category, idx); err != nil {
		slog.Warn("lexical_cache_write_failed", "category", category, "error", err)
	}
	return idx, nil
}

func (s *Store) loadCached(category domain.Category, sourceModTime time.Time, wantDocs int) *Index {
	path := s.cachePath(category)
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if !info.ModTime().After(sourceModTime) {
		slog.Info("lexical_cache_stale", "category", category)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var idx Index
	if err := gob.NewDecoder(f).Decode(&idx); err != nil {
		slog.Warn("lexical_cache_unreadable",
			"category", category,
			"error", domain.WrapError(domain.ErrCacheInvalid, "decode lexical cache", err),
		)
		return nil
	}
	if idx.Size() != wantDocs {
		slog.Warn("lexical_cache_size_mismatch", "category", category, "cached", idx.Size(), "want", wantDocs)
		return nil
	}
	return &idx
}

func (s *Store) persist(category domain.Category, idx *Index) error {
	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf("bm25_%s_*.tmp", category))
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(idx); err != nil {
		tmp.Close()
		return fmt.Errorf("encode lexical cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.cachePath(category)); err != nil {
		return fmt.Errorf("replace lexical cache: %w", err)
	}
	return nil
}
