package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDataUnavailable      = errors.New("dataset unavailable")
	ErrCacheInvalid         = errors.New("index cache invalid")
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	ErrIdentifierResolution = errors.New("identifier does not resolve to a record")
	ErrInvalidInput         = errors.New("invalid input")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
