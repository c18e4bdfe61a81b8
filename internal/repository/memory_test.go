package repository

import (
	"context"
	"testing"
	"time"

	"bamboowoods/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("Session", func(t *testing.T) {
		session := &models.Session{Token: "abc", AdminID: 1, ExpiresAt: now.Add(time.Hour)}
		require.NoError(t, repo.SaveSession(ctx, session))

		got, err := repo.GetSession(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, session, got)

		got.Email = "mutated"
		again, _ := repo.GetSession(ctx, "abc")
		assert.Empty(t, again.Email)

		now = now.Add(2 * time.Hour)
		got, err = repo.GetSession(ctx, "abc")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DashboardState", func(t *testing.T) {
		state := &models.DashboardState{SessionID: "abc", Page: 2, Search: "kamau"}
		require.NoError(t, repo.SaveDashboardState(ctx, state))

		got, err := repo.GetDashboardState(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, state, got)

		require.NoError(t, repo.ClearDashboardState(ctx, "abc"))
		got, _ = repo.GetDashboardState(ctx, "abc")
		assert.Nil(t, got)

		require.NoError(t, repo.SaveDashboardState(ctx, state))
		now = now.Add(2 * time.Hour)
		got, _ = repo.GetDashboardState(ctx, "abc")
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		allowed, _ := repo.CheckRateLimit(ctx, "ip", 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, "ip", 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, "ip", 2, time.Second)
		assert.False(t, allowed)

		now = now.Add(time.Second + time.Millisecond)
		allowed, _ = repo.CheckRateLimit(ctx, "ip", 2, time.Second)
		assert.True(t, allowed)
	})
}
