package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newStore() (*InMemoryBucketStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewInMemoryBucketStore(WithClock(clock.Now)), clock
}

func TestInMemoryBucketStore_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("requests up to the limit are allowed", func(t *testing.T) {
		store, _ := newStore()
		for i := range 3 {
			res, err := store.Allow(ctx, "k", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, 3, res.Limit)
			assert.Equal(t, 2-i, res.Remaining)
		}
	})

	t.Run("request over the limit is denied with retry after", func(t *testing.T) {
		store, clock := newStore()
		for range 2 {
			_, err := store.Allow(ctx, "k", 2, time.Minute)
			require.NoError(t, err)
		}
		clock.Advance(20 * time.Second)

		res, err := store.Allow(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
		assert.Equal(t, 40, res.RetryAfter)
	})

	t.Run("window slides", func(t *testing.T) {
		store, clock := newStore()
		_, _ = store.Allow(ctx, "k", 1, time.Minute)
		clock.Advance(time.Minute + time.Millisecond)

		res, err := store.Allow(ctx, "k", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("keys are independent", func(t *testing.T) {
		store, _ := newStore()
		_, _ = store.Allow(ctx, "a", 1, time.Minute)

		res, err := store.Allow(ctx, "b", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})
}

func TestInMemoryBucketStore_AllowN(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore()

	res, err := store.AllowN(ctx, "k", 4, 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	res, err = store.AllowN(ctx, "k", 2, 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = store.AllowN(ctx, "k", 1, 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestInMemoryBucketStore_ResetAndSweep(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore()

	_, _ = store.Allow(ctx, "a", 1, time.Minute)
	_, _ = store.Allow(ctx, "b", 1, 2*time.Minute)

	require.NoError(t, store.Reset(ctx, "a"))
	res, err := store.Allow(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	clock.Advance(90 * time.Second)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Sweep())
}
