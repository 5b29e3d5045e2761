package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with in-process counters. Suitable for
// single-instance deployments and tests; multi-instance deployments should
// use the Redis store so limits apply across replicas.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

// NewMemoryStore creates an empty in-memory rate limit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*memoryWindow),
	}
}

func (s *MemoryStore) IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !w.resetAt.After(now) {
		w = &memoryWindow{resetAt: now.Add(window)}
		s.windows[key] = w
	}

	w.count++
	return w.count, w.resetAt, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}
