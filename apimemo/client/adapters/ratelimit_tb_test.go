package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBucket(capacity int, refill time.Duration) (*TokenBucket, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	tb := NewTokenBucket(capacity, refill)
	tb.now = clock.now
	return tb, clock
}

func TestTokenBucket_ExhaustsThenRefills(t *testing.T) {
	tb, clock := newTestBucket(2, time.Second)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		release, err := tb.Acquire(ctx, "dispatch")
		require.NoError(t, err)
		release()
	}

	_, err := tb.Acquire(ctx, "dispatch")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimitExceeded)

	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "dispatch", rle.Key)
	assert.Equal(t, time.Second, rle.RetryAfter)

	clock.advance(1500 * time.Millisecond)
	_, err = tb.Acquire(ctx, "dispatch")
	require.NoError(t, err)

	_, err = tb.Acquire(ctx, "dispatch")
	require.Error(t, err, "only one token refilled")
	assert.ErrorAs(t, err, &rle)
	assert.Equal(t, 500*time.Millisecond, rle.RetryAfter)
}

func TestTokenBucket_RefillCappedAtCapacity(t *testing.T) {
	tb, clock := newTestBucket(3, time.Second)
	ctx := context.Background()

	_, err := tb.Acquire(ctx, "k")
	require.NoError(t, err)

	clock.advance(time.Hour)
	for i := 0; i < 3; i++ {
		_, err := tb.Acquire(ctx, "k")
		require.NoError(t, err)
	}
	_, err = tb.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
}

func TestTokenBucket_KeysAreIndependent(t *testing.T) {
	tb, _ := newTestBucket(1, time.Minute)
	ctx := context.Background()

	_, err := tb.Acquire(ctx, "a")
	require.NoError(t, err)
	_, err = tb.Acquire(ctx, "b")
	require.NoError(t, err)
	_, err = tb.Acquire(ctx, "a")
	assert.Error(t, err)
}

func TestTokenBucket_CancelledContext(t *testing.T) {
	tb, _ := newTestBucket(5, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tb.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTokenBucket_ClampsArguments(t *testing.T) {
	tb := NewTokenBucket(0, 0)
	assert.Equal(t, 1, tb.capacity)
	assert.Equal(t, time.Second, tb.refillRate)
}
