package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"precedent/internal/core/domain"
)

// Loader reads immutable per-category dataset snapshots from a directory.
// One JSON file per category; a record's index in the file is its stable
// document position for the life of the snapshot.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Path returns the snapshot file for a category.
func (l *Loader) Path(category domain.Category) string {
	return filepath.Join(l.dir, fmt.Sprintf("%s_verdicts.json", category))
}

// Load reads the full snapshot for one category. A missing or corrupt
// file is reported as ErrDataUnavailable so the caller can degrade that
// category without aborting the others.
func (l *Loader) Load(ctx context.Context, category domain.Category) ([]domain.CaseRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(l.Path(category))
	if err != nil {
		return nil, domain.WrapError(domain.ErrDataUnavailable, "read dataset", err)
	}

	var records []domain.CaseRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, domain.WrapError(domain.ErrDataUnavailable, "decode dataset", err)
	}
	return records, nil
}

// ModTime is the freshness signal for lexical cache invalidation.
func (l *Loader) ModTime(category domain.Category) (time.Time, error) {
	info, err := os.Stat(l.Path(category))
	if err != nil {
		return time.Time{}, domain.WrapError(domain.ErrDataUnavailable, "stat dataset", err)
	}
	return info.ModTime(), nil
}

// Fingerprint hashes the snapshot content. The semantic index stores the
// fingerprint it was ingested from; a mismatch at startup forces re-ingestion.
func (l *Loader) Fingerprint(category domain.Category) (string, error) {
	f, err := os.Open(l.Path(category))
	if err != nil {
		return "", domain.WrapError(domain.ErrDataUnavailable, "open dataset", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", domain.WrapError(domain.ErrDataUnavailable, "hash dataset", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
