package memory

import (
	"context"
	"sync"

	"scenario-quiz-service/internal/domain"
)

// ProgressStore is an in-process progress.RemoteStore for single-node runs and tests.
type ProgressStore struct {
	mu   sync.RWMutex
	data map[domain.ProgressKey][]byte
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{data: make(map[domain.ProgressKey][]byte)}
}

func (s *ProgressStore) SaveProgress(_ context.Context, key domain.ProgressKey, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), payload...)
	return nil
}

func (s *ProgressStore) GetProgress(_ context.Context, key domain.ProgressKey) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.data[key]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (s *ProgressStore) ResetProgress(_ context.Context, key domain.ProgressKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// LocalCache is a map-backed progress.LocalCache.
type LocalCache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewLocalCache() *LocalCache {
	return &LocalCache{data: make(map[string][]byte)}
}

func (c *LocalCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	return append([]byte(nil), v...), nil
}

func (c *LocalCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = append([]byte(nil), value...)
	return nil
}

func (c *LocalCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// Has reports whether key is present.
func (c *LocalCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[key]
	return ok
}
