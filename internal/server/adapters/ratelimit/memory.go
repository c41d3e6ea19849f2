// Package ratelimit provides the RateLimiter implementations: an
// in-process sliding window for single-instance deployments and a
// Redis-backed window for multi-instance ones.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"notedrop/internal/server/ports/services"
)

// record tracks one key's window.
type record struct {
	count     int
	resetTime time.Time
}

// MemoryLimiter is a process-local fixed-window limiter with periodic
// expiry of stale keys.
type MemoryLimiter struct {
	mu          sync.Mutex
	records     map[string]*record
	maxRequests int
	window      time.Duration
	now         func() time.Time

	lastSweep time.Time
}

// NewMemoryLimiter creates an in-memory limiter.
func NewMemoryLimiter(maxRequests int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		records:     make(map[string]*record),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Allow records one request for the key and reports whether it is
// within the limit.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	rec, ok := l.records[key]
	if !ok || now.After(rec.resetTime) {
		l.records[key] = &record{count: 1, resetTime: now.Add(l.window)}
		return true, nil
	}

	if rec.count >= l.maxRequests {
		return false, nil
	}

	rec.count++
	return true, nil
}

// sweep drops expired records at most once per window.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key, rec := range l.records {
		if now.After(rec.resetTime) {
			delete(l.records, key)
		}
	}
}

var _ services.RateLimiter = (*MemoryLimiter)(nil)
