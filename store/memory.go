package store

import (
	"context"
	"sync"
	"time"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

// MemoryStore is an in-process Store for tests and single-node setups.
// Expired keys are dropped lazily on access.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]entry
	hashes map[string]map[string][]byte
	now    func() time.Time
}

type entry struct {
	value  []byte
	expire time.Time // zero means no expiry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]entry),
		hashes: make(map[string]map[string][]byte),
		now:    time.Now,
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) alive(e entry) bool {
	return e.expire.IsZero() || m.now().Before(e.expire)
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok || !m.alive(e) {
		if ok {
			m.mu.Lock()
			if cur, still := m.data[key]; still && !m.alive(cur) {
				delete(m.data, key)
			}
			m.mu.Unlock()
		}
		return nil, ErrNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl ...int) error {
	e := entry{value: append([]byte(nil), value...)}
	if len(ttl) > 0 && ttl[0] > 0 {
		e.expire = m.now().Add(time.Duration(ttl[0]) * time.Second)
	}
	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	delete(m.hashes, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) BatchGet(_ context.Context, keys []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if e, ok := m.data[k]; ok && m.alive(e) {
			result[k] = e.value
		}
	}
	return result, nil
}

func (m *MemoryStore) HSet(_ context.Context, key, field string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string][]byte)
		m.hashes[key] = h
	}
	h[field] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) HGetAll(_ context.Context, key string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.hashes[key]
	result := make(map[string][]byte, len(h))
	for f, v := range h {
		result[f] = v
	}
	return result, nil
}

func (m *MemoryStore) Close() error { return nil }

var _ core.Store = (*MemoryStore)(nil)
