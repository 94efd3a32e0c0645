package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/storage"
)

// Key prefix for embedding vectors.
const vectorPrefix = "vec"

// makeVectorKey generates a key for a vector by content hash.
func makeVectorKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", vectorPrefix, id))
}

// VectorCache implements storage.VectorCache on BadgerDB.
type VectorCache struct {
	backend *Backend
}

var _ storage.VectorCache = (*VectorCache)(nil)

// NewVectorCache creates a vector cache on an open backend.
// The backend may be shared; Close does not close it.
func NewVectorCache(backend *Backend) (storage.VectorCache, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &VectorCache{backend: backend}, nil
}

// NewMemoryCache creates a self-contained in-memory vector cache for a
// single job. Caller must close both the cache and the returned backend.
func NewMemoryCache() (storage.VectorCache, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}
	cache, err := NewVectorCache(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return cache, backend, nil
}

// GetVector returns the cached vector for the given content hash.
func (c *VectorCache) GetVector(ctx context.Context, id core.ID) ([]float32, bool, error) {
	if c.backend.IsClosed() {
		return nil, false, storage.ErrCacheClosed
	}

	var vector []float32
	found := false

	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v, err := storage.UnmarshalVector(val)
			if err != nil {
				return err
			}
			vector = v
			found = true
			return nil
		})
	}, false)

	if err != nil {
		return nil, false, err
	}
	return vector, found, nil
}

// PutVector stores a vector under the given content hash.
func (c *VectorCache) PutVector(ctx context.Context, id core.ID, vector []float32) error {
	if c.backend.IsClosed() {
		return storage.ErrCacheClosed
	}

	value, err := storage.MarshalVector(vector)
	if err != nil {
		return err
	}

	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeVectorKey(id), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close releases resources. The shared backend stays open.
func (c *VectorCache) Close() error {
	return nil
}
