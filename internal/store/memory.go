package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend keeps partitions in process memory.  It is used in tests
// and when Redis is not reachable at startup.
type MemoryBackend struct {
	mu    sync.RWMutex
	parts map[string]map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{parts: map[string]map[string][]byte{}}
}

func (m *MemoryBackend) Set(_ context.Context, partition, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parts[partition]
	if !ok {
		p = map[string][]byte{}
		m.parts[partition] = p
	}
	p[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryBackend) Get(_ context.Context, partition, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.parts[partition][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryBackend) Delete(_ context.Context, partition, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.parts[partition], key)
	return nil
}

func (m *MemoryBackend) Clear(_ context.Context, partition string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.parts, partition)
	return nil
}

func (m *MemoryBackend) Keys(_ context.Context, partition string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.parts[partition]))
	for k := range m.parts[partition] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
