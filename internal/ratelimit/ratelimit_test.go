package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	l := NewMemoryLimiter(time.Hour)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	allowed, _, err := l.Allow(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, allowed)

	// Same key inside the window is rejected with the remaining wait.
	now = now.Add(10 * time.Minute)
	allowed, retryAfter, err := l.Allow(ctx, "a@example.com")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 50*time.Minute, retryAfter)

	// A different key is independent.
	allowed, _, err = l.Allow(ctx, "b@example.com")
	require.NoError(t, err)
	require.True(t, allowed)

	// After the window expires the key is admitted again.
	now = now.Add(time.Hour)
	allowed, _, err = l.Allow(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestMemoryLimiterEvictsStaleEntries(t *testing.T) {
	now := time.Unix(1000, 0)
	l := NewMemoryLimiter(time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		_, _, err := l.Allow(ctx, key)
		require.NoError(t, err)
	}
	require.Len(t, l.seen, 3)

	now = now.Add(2 * time.Minute)
	_, _, err := l.Allow(ctx, "d")
	require.NoError(t, err)
	require.Len(t, l.seen, 1)
}
