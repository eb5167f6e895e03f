package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Limiter answers whether the caller identified by key may proceed.
// Allow checks and consumes in a single step.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
