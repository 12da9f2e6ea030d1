package contentstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credo/pkg/platform/circuit"
)

type stubFetcher struct {
	calls int
	data  []byte
	err   error
}

func (c *stubFetcher) Fetch(context.Context, string) ([]byte, error) {
	c.calls++
	return c.data, c.err
}

func TestFailoverFetcher(t *testing.T) {
	ctx := context.Background()
	unavailable := NewFetchError(ErrorUnavailable, testCID, "gateway returned 503", nil)

	t.Run("healthy primary serves every read", func(t *testing.T) {
		primary := &stubFetcher{data: []byte("primary")}
		fallback := &stubFetcher{data: []byte("fallback")}
		f := NewFailoverFetcher(primary, fallback, circuit.New("test"), nil)

		got, err := f.Fetch(ctx, testCID)
		require.NoError(t, err)
		assert.Equal(t, "primary", string(got))
		assert.Zero(t, fallback.calls)
	})

	t.Run("fallback takes over once the circuit opens", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		breaker := circuit.New("test",
			circuit.WithFailureThreshold(2),
			circuit.WithCooldown(time.Minute),
			circuit.WithClock(func() time.Time { return now }),
		)
		primary := &stubFetcher{err: unavailable}
		fallback := &stubFetcher{data: []byte("fallback")}
		f := NewFailoverFetcher(primary, fallback, breaker, nil)

		_, err := f.Fetch(ctx, testCID)
		assert.ErrorIs(t, err, unavailable, "below threshold the primary error is reported")

		got, err := f.Fetch(ctx, testCID)
		require.NoError(t, err)
		assert.Equal(t, "fallback", string(got))

		got, err = f.Fetch(ctx, testCID)
		require.NoError(t, err)
		assert.Equal(t, "fallback", string(got))
		assert.Equal(t, 2, primary.calls, "open circuit skips the primary")

		now = now.Add(time.Minute)
		primary.err = nil
		primary.data = []byte("primary")
		got, err = f.Fetch(ctx, testCID)
		require.NoError(t, err)
		assert.Equal(t, "primary", string(got), "probe after cooldown")
	})

	t.Run("missing content does not trip the circuit", func(t *testing.T) {
		breaker := circuit.New("test", circuit.WithFailureThreshold(1))
		primary := &stubFetcher{err: NewFetchError(ErrorNotFound, testCID, "not found", nil)}
		fallback := &stubFetcher{data: []byte("fallback")}
		f := NewFailoverFetcher(primary, fallback, breaker, nil)

		_, err := f.Fetch(ctx, testCID)
		assert.Equal(t, ErrorNotFound, GetCategory(err))
		assert.False(t, breaker.IsOpen())
		assert.Zero(t, fallback.calls)
	})
}
