package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in process memory. Counts are not shared
// between instances, so it is only correct for a single-instance deployment.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type MemoryOption func(*MemoryLimiter)

func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) { l.now = now }
}

func NewMemoryLimiter(opts ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, p Policy) (Result, error) {
	k := windowKey(p, key)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[k]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(p.Window)}
		l.windows[k] = w
	}

	if w.count >= p.Limit {
		return Result{Allowed: false, Limit: p.Limit, Remaining: 0, ResetAt: w.resetAt}, nil
	}

	w.count++
	return Result{
		Allowed:   true,
		Limit:     p.Limit,
		Remaining: p.Limit - w.count,
		ResetAt:   w.resetAt,
	}, nil
}

// Sweep drops every expired window and returns how many were removed.
func (l *MemoryLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
			removed++
		}
	}
	return removed
}

func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// StartSweeper runs Sweep every interval until Close is called.
func (l *MemoryLimiter) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-l.stop:
				return
			}
		}
	}()
}

func (l *MemoryLimiter) Close() error {
	l.stopOnce.Do(func() { close(l.stop) })
	return nil
}
