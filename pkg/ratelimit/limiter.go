package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Result carries everything the boundary needs to answer a request and
// populate X-RateLimit-* and Retry-After headers.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
	TotalHits int64
}

// RetryAfter returns whole seconds until the failing window closes,
// never less than one second for a denied request.
func (r *Result) RetryAfter() int {
	secs := int(time.Until(r.ResetTime).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter enforces named rate-limit policies against a shared counting
// store. The policy table is fixed at construction and never mutated.
type Limiter struct {
	store   Store
	configs map[string]Config
}

// New creates a Limiter. Passing nil configs installs DefaultConfigs.
func New(store Store, configs map[string]Config) *Limiter {
	if configs == nil {
		configs = DefaultConfigs()
	}
	return &Limiter{store: store, configs: configs}
}

// Check counts a hit for key under the named policy and reports whether
// the request is allowed. Every window layer is incremented on every
// call; the request passes only if all layers are within budget.
func (l *Limiter) Check(ctx context.Context, key, configName string) (*Result, error) {
	cfg, ok := l.configs[configName]
	if !ok {
		return nil, fmt.Errorf("unknown rate limit config %q", configName)
	}
	return l.CheckWith(ctx, key, cfg)
}

// CheckWith is Check with an explicit, possibly caller-built, policy.
func (l *Limiter) CheckWith(ctx context.Context, key string, cfg Config) (*Result, error) {
	if len(cfg.Windows) == 0 {
		return nil, fmt.Errorf("rate limit config %q has no windows", cfg.Name)
	}

	now := time.Now()
	result := &Result{Allowed: true}
	denied := false

	for i, w := range cfg.Windows {
		storeKey := fmt.Sprintf("rl:%s:%s:%d", cfg.Name, key, i)
		count, ttl, err := l.store.Incr(ctx, storeKey, w.Interval)
		if err != nil {
			return nil, err
		}

		reset := now.Add(ttl)
		remaining := w.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}

		if int(count) > w.MaxRequests {
			// Denied: report the slowest-recovering exceeded layer.
			if !denied || reset.After(result.ResetTime) {
				result.Limit = w.MaxRequests
				result.Remaining = 0
				result.ResetTime = reset
				result.TotalHits = count
			}
			denied = true
			continue
		}

		// Allowed so far: report the tightest layer.
		if !denied && (i == 0 || remaining < result.Remaining) {
			result.Limit = w.MaxRequests
			result.Remaining = remaining
			result.ResetTime = reset
			result.TotalHits = count
		}
	}

	result.Allowed = !denied
	return result, nil
}
