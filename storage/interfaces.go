package storage

import (
	"context"

	"github.com/veridia/clausewise/core"
)

// VectorCache memoizes embedding vectors keyed by content hash.
// Implementations must be thread-safe.
type VectorCache interface {
	// GetVector returns the cached vector for the given content hash.
	// The second return value reports whether the vector was present.
	GetVector(ctx context.Context, id core.ID) ([]float32, bool, error)

	// PutVector stores a vector under the given content hash.
	// Storing overwrites any previous value for the same hash.
	PutVector(ctx context.Context, id core.ID, vector []float32) error

	// Close releases resources held by the cache.
	Close() error
}
