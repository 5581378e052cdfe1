package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps counting-store failures so callers can decide
// whether to fail open or closed.
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// Store is the counting backend. Incr must be a single atomic
// increment-and-check round trip; a read-then-write sequence would
// undercount under concurrency. Entries expire with their window, no
// explicit deletion is needed.
type Store interface {
	// Incr increments the counter for key, starting a window of the given
	// length on first hit. It returns the new count and the time remaining
	// until the window closes.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

type redisStore struct {
	client redis.UniversalClient
}

// NewRedisStore returns a Store backed by Redis counters. This is the
// store to use whenever more than one API instance serves traffic.
func NewRedisStore(client redis.UniversalClient) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return incr.Val(), remaining, nil
}
