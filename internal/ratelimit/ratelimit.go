package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a keyed sliding-window request budget. The fetcher consults
// it once per outbound content fetch, keyed by the client identity (user
// id or IP). Implementations must be safe for concurrent use; the Redis
// implementation lets multiple service instances share one budget.
type Limiter interface {
	// Allow records one request for key and reports whether it fits
	// inside the window budget.
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory is an in-process sliding-window Limiter. Each key keeps the
// timestamps of its recent requests; timestamps older than the window are
// pruned on every call.
type Memory struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	hits   map[string][]time.Time
	now    func() time.Time
}

// NewMemory builds a Memory limiter allowing limit requests per window.
func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		window: window,
		limit:  limit,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	if m.limit <= 0 {
		return true, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-m.window)

	kept := m.hits[key][:0]
	for _, t := range m.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= m.limit {
		m.hits[key] = kept
		return false, nil
	}

	m.hits[key] = append(kept, now)
	return true, nil
}
