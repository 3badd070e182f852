package core

import "context"

// Store is the key-value abstraction the catalog reads item metadata from.
// It is defined here and implemented by the store package (memory, redis).
type Store interface {
	// Name identifies the backend in logs.
	Name() string

	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes a value; an optional ttl is in seconds.
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	Delete(ctx context.Context, key string) error

	// BatchGet omits missing keys from the result.
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// HSet writes one hash field.
	HSet(ctx context.Context, key, field string, value []byte) error

	// HGetAll returns every field of a hash; a missing hash yields an empty map.
	HGetAll(ctx context.Context, key string) (map[string][]byte, error)

	Close() error
}

var ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

func IsStoreNotFound(err error) bool {
	de := GetDomainError(err)
	return de != nil && de.Module == ModuleStore && de.Code == ErrorCodeNotFound
}
