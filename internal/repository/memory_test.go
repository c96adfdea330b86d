package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("ConsumeOnce", func(t *testing.T) {
		require.NoError(t, store.SaveToken(ctx, "verify", "a", "u1", time.Hour))
		subject, err := store.ConsumeToken(ctx, "verify", "a")
		require.NoError(t, err)
		assert.Equal(t, "u1", subject)

		subject, _ = store.ConsumeToken(ctx, "verify", "a")
		assert.Empty(t, subject)
	})

	t.Run("Expired", func(t *testing.T) {
		require.NoError(t, store.SaveToken(ctx, "verify", "b", "u2", time.Minute))
		now = now.Add(2 * time.Minute)
		subject, err := store.ConsumeToken(ctx, "verify", "b")
		require.NoError(t, err)
		assert.Empty(t, subject)
	})

	t.Run("RateLimitWindow", func(t *testing.T) {
		allowed, _ := store.CheckRateLimit(ctx, "k", 2, time.Minute)
		assert.True(t, allowed)
		allowed, _ = store.CheckRateLimit(ctx, "k", 2, time.Minute)
		assert.True(t, allowed)
		allowed, _ = store.CheckRateLimit(ctx, "k", 2, time.Minute)
		assert.False(t, allowed)

		now = now.Add(2 * time.Minute)
		allowed, _ = store.CheckRateLimit(ctx, "k", 2, time.Minute)
		assert.True(t, allowed)

		require.NoError(t, store.ResetRateLimit(ctx, "k"))
		allowed, _ = store.CheckRateLimit(ctx, "k", 1, time.Minute)
		assert.True(t, allowed)
	})
}
