// Package ratelimit implements per-source sliding-window counters. The
// relay keeps two independent instances: one gating login attempts, one
// gating Wake-on-LAN triggers.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

type windowState struct {
	count   int
	resetAt time.Time
}

// Limiter tracks up to limit events per key within window, resetting the
// count once window has elapsed since the first event in the current
// window.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*windowState
	limit   int
	window  time.Duration
	now     func() time.Time
}

func New(limit int, window time.Duration) *Limiter {
	return newWithClock(limit, window, time.Now)
}

func newWithClock(limit int, window time.Duration, now func() time.Time) *Limiter {
	l := &Limiter{windows: make(map[string]*windowState), limit: limit, window: window, now: now}
	go l.cleanup()
	return l
}

func (l *Limiter) cleanup() {
	if l.window <= 0 {
		return
	}
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		now := l.now()
		for key, w := range l.windows {
			if now.After(w.resetAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// Allow reports whether key may proceed, incrementing its counter if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &windowState{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// RetryAfter returns a human-readable hint for when key may retry, valid
// only to call right after Allow has returned false for that key.
func (l *Limiter) RetryAfter(key string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		return "a moment"
	}
	remaining := w.resetAt.Sub(l.now())
	if remaining <= 0 {
		return "now"
	}
	minutes := int(remaining / time.Minute)
	if minutes < 1 {
		return "less than a minute"
	}
	return fmt.Sprintf("%d minute(s)", minutes)
}
