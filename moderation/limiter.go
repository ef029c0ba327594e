package moderation

import (
	"sync"
	"time"
)

const (
	DefaultRateWindow = 30 * time.Second
	DefaultRateLimit  = 10
)

// RateLimiter keeps a sliding window of message timestamps per
// connection. It is advisory abuse detection, not a token bucket:
// state is keyed by connection id and dies with the connection, so a
// reconnect starts a fresh window. That lossiness is accepted.
type RateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	events map[string][]time.Time
	now    func() time.Time
}

func NewRateLimiter(window time.Duration, limit int) *RateLimiter {
	return &RateLimiter{
		window: window,
		limit:  limit,
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// RecordAndCheck registers one inbound message for the connection and
// reports whether it is still within limits. A false return is an
// auto-ban signal: the caller must ban the origin and close the
// connection.
func (l *RateLimiter) RecordAndCheck(connectionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	window := append(l.events[connectionID], now)

	// Timestamps are appended in order, so expiry is a prefix trim.
	cutoff := now.Add(-l.window)
	start := 0
	for start < len(window) && !window[start].After(cutoff) {
		start++
	}
	window = window[start:]

	l.events[connectionID] = window
	return len(window) <= l.limit
}

// Forget discards the window of a disconnected connection.
func (l *RateLimiter) Forget(connectionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.events, connectionID)
}
