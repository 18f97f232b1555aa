package adapters

import (
	"context"
	"fmt"
	"sync"
	"time"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
)

// TokenBucket is a per-key token bucket. Tokens refill one at a time every
// refillRate up to capacity; Acquire never blocks.
type TokenBucket struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	capacity   int
	refillRate time.Duration
	now        func() time.Time
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewTokenBucket creates a token bucket rate limiter.
func NewTokenBucket(capacity int, refillRate time.Duration) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	if refillRate <= 0 {
		refillRate = time.Second
	}
	return &TokenBucket{
		buckets:    make(map[string]*bucket),
		capacity:   capacity,
		refillRate: refillRate,
		now:        time.Now,
	}
}

// Acquire takes a token for key. The returned release is a no-op kept for the
// RateLimiter contract; spent tokens only come back through refill.
func (tb *TokenBucket) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, lastRefill: now}
		tb.buckets[key] = b
	}

	if refill := int(now.Sub(b.lastRefill) / tb.refillRate); refill > 0 {
		b.tokens = min(b.tokens+refill, tb.capacity)
		b.lastRefill = b.lastRefill.Add(time.Duration(refill) * tb.refillRate)
	}

	if b.tokens <= 0 {
		return nil, &RateLimitError{
			Key:        key,
			RetryAfter: b.lastRefill.Add(tb.refillRate).Sub(now),
		}
	}

	b.tokens--
	return func() {}, nil
}

// ErrRateLimitExceeded matches any *RateLimitError via errors.Is.
var ErrRateLimitExceeded = &RateLimitError{}

// RateLimitError reports an exhausted bucket.
type RateLimitError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Key == "" {
		return "rate limit exceeded"
	}
	return fmt.Sprintf("rate limit exceeded for %q, retry in %s", e.Key, e.RetryAfter)
}

// Is lets errors.Is(err, ErrRateLimitExceeded) match every RateLimitError.
func (e *RateLimitError) Is(target error) bool {
	_, ok := target.(*RateLimitError)
	return ok
}

// Ensure TokenBucket implements the RateLimiter interface.
var _ ports.RateLimiter = (*TokenBucket)(nil)
