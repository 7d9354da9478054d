package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"precedent/internal/core/domain"
)

// FileFingerprintStore keeps one sidecar file per category recording the
// dataset fingerprint its semantic collection was ingested from.
type FileFingerprintStore struct {
	dir string
}

func NewFileFingerprintStore(dir string) (*FileFingerprintStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create fingerprint dir: %w", err)
	}
	return &FileFingerprintStore{dir: dir}, nil
}

func (s *FileFingerprintStore) path(category domain.Category) string {
	return filepath.Join(s.dir, fmt.Sprintf("semantic_%s.sum", category))
}

// Get returns the recorded fingerprint, or "" when none was recorded yet.
func (s *FileFingerprintStore) Get(category domain.Category) (string, error) {
	raw, err := os.ReadFile(s.path(category))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read fingerprint: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *FileFingerprintStore) Set(category domain.Category, fingerprint string) error {
	if err := os.WriteFile(s.path(category), []byte(fingerprint+"\n"), 0o644); err != nil {
		return fmt.Errorf("write fingerprint: %w", err)
	}
	return nil
}
