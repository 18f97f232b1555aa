package clientports

import "context"

// RateLimiter throttles outbound calls per key.
type RateLimiter interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
