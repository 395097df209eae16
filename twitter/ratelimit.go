package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitTracker is a cheap local gate in front of the API. Each endpoint
// key gets a burst-1 token bucket refilled once per minimum interval. It does
// not replace the API's own 429 responses, which are fed back through Block.
type RateLimitTracker struct {
	mu        sync.Mutex
	now       func() time.Time
	intervals map[string]time.Duration
	limiters  map[string]*rate.Limiter
	blocked   map[string]time.Time
	metrics   *Metrics
}

// NewRateLimitTracker creates a tracker with a minimum interval per endpoint
// key. Keys that are absent or mapped to zero are not limited locally.
func NewRateLimitTracker(intervals map[string]time.Duration, now func() time.Time) *RateLimitTracker {
	if now == nil {
		now = time.Now
	}
	copied := make(map[string]time.Duration, len(intervals))
	for k, v := range intervals {
		copied[k] = v
	}
	return &RateLimitTracker{
		now:       now,
		intervals: copied,
		limiters:  map[string]*rate.Limiter{},
		blocked:   map[string]time.Time{},
	}
}

// WithMetrics attaches metrics for local rejections.
func (t *RateLimitTracker) WithMetrics(m *Metrics) *RateLimitTracker {
	t.metrics = m
	return t
}

// Check permits the call and records it, or returns a RateLimitExceeded error.
func (t *RateLimitTracker) Check(endpoint string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if until, ok := t.blocked[endpoint]; ok {
		if now.Before(until) {
			t.reject(endpoint)
			return newRateLimitExceeded(endpoint, until)
		}
		delete(t.blocked, endpoint)
	}

	interval := t.intervals[endpoint]
	if interval <= 0 {
		return nil
	}
	lim, ok := t.limiters[endpoint]
	if !ok {
		lim = rate.NewLimiter(rate.Every(interval), 1)
		t.limiters[endpoint] = lim
	}
	if !lim.AllowN(now, 1) {
		t.reject(endpoint)
		missing := 1 - lim.TokensAt(now)
		retryAt := now.Add(time.Duration(missing * float64(interval)))
		return newRateLimitExceeded(endpoint, retryAt)
	}
	return nil
}

// Block rejects calls for endpoint until the given instant. Used when the API
// reports its quota is exhausted.
func (t *RateLimitTracker) Block(endpoint string, until time.Time) {
	if until.IsZero() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.blocked[endpoint]; ok && cur.After(until) {
		return
	}
	t.blocked[endpoint] = until
	debugLogf("rate limit: %s blocked until %s", endpoint, until.Format(time.RFC3339))
}

func (t *RateLimitTracker) reject(endpoint string) {
	if t.metrics != nil {
		t.metrics.rateLimited.WithLabelValues(endpoint, "local").Inc()
	}
}
