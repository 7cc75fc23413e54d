package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process ObjectStore for local development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string
	// FailAfter makes Put fail once this many objects were stored; 0 disables it.
	FailAfter int
	puts      int
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), baseURL: baseURL}
}

func (m *MemoryStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAfter > 0 && m.puts >= m.FailAfter {
		return "", fmt.Errorf("could not upload %s: store unavailable", key)
	}
	m.puts++
	m.objects[key] = append([]byte(nil), body...)
	return PublicURL(m.baseURL, key), nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("object %s not found", key)
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
