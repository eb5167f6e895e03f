package common

const (
	RequestIDHeader = "X-Request-Id"

	RateLimitLimitHeader     = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
	RetryAfterHeader         = "Retry-After"

	// AnonymousClientKey buckets every request that arrives without a
	// resolvable client address, so those callers share one budget.
	AnonymousClientKey = "unknown"
)
