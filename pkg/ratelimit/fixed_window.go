package ratelimit

import (
	"context"
	"sync"
	"time"
)

type record struct {
	count   int
	resetAt time.Time
}

// FixedWindowLimiter counts requests per key in fixed windows held in
// process memory. The first request of a window pins its reset time, and
// rejected requests still count, so hammering the endpoint never extends
// a client's own window.
type FixedWindowLimiter struct {
	mu      sync.Mutex
	records map[string]*record

	limit        int
	window       time.Duration
	timeProvider func() time.Time
}

type FixedWindowOpts struct {
	TimeProvider func() time.Time
}

func NewFixedWindowLimiter(limit int, window time.Duration, opts *FixedWindowOpts) *FixedWindowLimiter {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	return &FixedWindowLimiter{
		records:      make(map[string]*record),
		limit:        limit,
		window:       window,
		timeProvider: timeProvider,
	}
}

// Allow consumes one slot for key. Expired records of every key are swept
// on each call, keeping the map bounded by the set of active clients.
func (l *FixedWindowLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.timeProvider()

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, r := range l.records {
		if !now.Before(r.resetAt) {
			delete(l.records, k)
		}
	}

	r, ok := l.records[key]
	if !ok {
		r = &record{resetAt: now.Add(l.window)}
		l.records[key] = r
	}

	r.count++

	d := Decision{
		Allowed:   r.count <= l.limit,
		Limit:     l.limit,
		Remaining: l.limit - r.count,
		ResetAt:   r.resetAt,
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = r.resetAt.Sub(now)
	}
	return d, nil
}

// Len reports the number of live records.
func (l *FixedWindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
