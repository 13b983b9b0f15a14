package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// MemoryLimiter keeps per-key windows in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]window
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewMemoryLimiter(limit int, w time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]window),
		limit:   limit,
		window:  w,
		now:     time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	if m.limit <= 0 {
		return true, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= m.window {
		m.pruneLocked(now)
		w = window{start: now}
	}
	w.count++
	m.windows[key] = w
	return w.count <= m.limit, nil
}

// pruneLocked drops expired windows so idle clients do not accumulate.
func (m *MemoryLimiter) pruneLocked(now time.Time) {
	for k, w := range m.windows {
		if now.Sub(w.start) >= m.window {
			delete(m.windows, k)
		}
	}
}
