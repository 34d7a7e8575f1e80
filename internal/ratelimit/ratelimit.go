// Package ratelimit implements the per-client sliding-window admission
// limiter guarding the model endpoints.
package ratelimit

import (
	"sync"
	"time"

	"github.com/aireviewmate/aireviewmate/internal/config"
	"github.com/aireviewmate/aireviewmate/internal/loggy"
)

// Result reports the outcome of an admission check.
type Result struct {
	Allowed bool
	Count   int // requests currently recorded in the window, including this one when allowed
	Max     int
}

// Limiter tracks request timestamps per client and admits at most Max
// requests per Window. Entries older than the window are evicted on every
// access rather than on a timer. A rejected request is not recorded, so
// hammering a saturated limiter does not extend the lockout.
type Limiter struct {
	mu         sync.Mutex
	window     time.Duration
	max        int
	maxClients int
	hits       map[string][]time.Time
	now        func() time.Time
	logger     *loggy.Logger
}

// New creates a limiter from config.
func New(cfg config.RateLimitConfig, logger *loggy.Logger) *Limiter {
	return &Limiter{
		window:     cfg.Window,
		max:        cfg.MaxHits,
		maxClients: cfg.MaxClients,
		hits:       make(map[string][]time.Time),
		now:        time.Now,
		logger:     logger,
	}
}

// Admit records and admits the request when the client is under its cap,
// or rejects it without recording.
func (l *Limiter) Admit(clientID string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := prune(l.hits[clientID], now.Add(-l.window))

	if len(recent) >= l.max {
		l.hits[clientID] = recent
		l.logger.Warn("Rate limit exceeded",
			"client", clientID,
			"count", len(recent),
			"max", l.max)
		return Result{Allowed: false, Count: len(recent), Max: l.max}
	}

	if _, tracked := l.hits[clientID]; !tracked && len(l.hits) >= l.maxClients && l.maxClients > 0 {
		l.sweep(now)
	}

	recent = append(recent, now)
	l.hits[clientID] = recent

	return Result{Allowed: true, Count: len(recent), Max: l.max}
}

// Clients returns the number of tracked client entries.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

// sweep drops clients whose windows contain no recent timestamps, bounding
// the map when many one-off clients have come and gone. Callers hold l.mu.
func (l *Limiter) sweep(now time.Time) {
	cutoff := now.Add(-l.window)
	for id, timestamps := range l.hits {
		if len(prune(timestamps, cutoff)) == 0 {
			delete(l.hits, id)
		}
	}
	l.logger.Debug("Swept idle rate limit entries", "remaining", len(l.hits))
}

// prune returns the timestamps at or after cutoff. Timestamps are appended
// in order, so the first recent index splits the slice.
func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	for i, t := range timestamps {
		if t.After(cutoff) {
			return timestamps[i:]
		}
	}
	return nil
}
