package ratelimit

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type memoryStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

// NewMemoryStore returns an in-process Store. Counters are not shared
// across instances, so this suits single-node deployments and tests;
// production multi-node setups should use NewRedisStore.
func NewMemoryStore() Store {
	return &memoryStore{
		cache: gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (s *memoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	// Add then Increment is not atomic across an expiry boundary, so the
	// whole sequence runs under the lock. Windows are per-key counters in
	// process memory; the lock is uncontended enough not to matter.
	s.mu.Lock()
	defer s.mu.Unlock()

	// Add is a no-op when the key already holds a live counter.
	_ = s.cache.Add(key, int64(0), window)

	count, err := s.cache.IncrementInt64(key, 1)
	if err != nil {
		// The counter expired between Add and Increment; start a fresh window.
		s.cache.Set(key, int64(1), window)
		count = 1
	}

	if _, expiration, ok := s.cache.GetWithExpiration(key); ok && !expiration.IsZero() {
		return count, time.Until(expiration), nil
	}
	return count, window, nil
}
