package repository

import (
	"context"
	"testing"
	"time"

	"bamboowoods/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStateRepository(t *testing.T) {
	s := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	repo := NewRedisStateRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("Session", func(t *testing.T) {
		session := &models.Session{Token: "tok-1", AdminID: 7, Email: "owner@bw.test", ExpiresAt: time.Now().Add(2 * time.Hour)}
		require.NoError(t, repo.SaveSession(ctx, session))
		assert.True(t, s.Exists(sessionKeyPrefix+"tok-1"))
		assert.InDelta(t, (2 * time.Hour).Seconds(), s.TTL(sessionKeyPrefix+"tok-1").Seconds(), 5)

		got, err := repo.GetSession(ctx, "tok-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(7), got.AdminID)
		assert.Equal(t, "owner@bw.test", got.Email)

		require.NoError(t, repo.DeleteSession(ctx, "tok-1"))
		got, err = repo.GetSession(ctx, "tok-1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ExpiredSessionRejected", func(t *testing.T) {
		err := repo.SaveSession(ctx, &models.Session{Token: "old", ExpiresAt: time.Now().Add(-time.Minute)})
		assert.Error(t, err)
	})

	t.Run("SessionExpiresInRedis", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{Token: "short", ExpiresAt: time.Now().Add(time.Minute)}))
		s.FastForward(2 * time.Minute)
		got, err := repo.GetSession(ctx, "short")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DashboardState", func(t *testing.T) {
		state := &models.DashboardState{SessionID: "tok-2", Tab: models.TabBookings, View: models.ViewHistory, Search: "mary", Page: 3}
		require.NoError(t, repo.SaveDashboardState(ctx, state))

		got, err := repo.GetDashboardState(ctx, "tok-2")
		require.NoError(t, err)
		assert.Equal(t, state, got)

		require.NoError(t, repo.ClearDashboardState(ctx, "tok-2"))
		got, err = repo.GetDashboardState(ctx, "tok-2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CorruptValue", func(t *testing.T) {
		require.NoError(t, s.Set(dashboardKeyPrefix+"bad", "{not json"))
		_, err := repo.GetDashboardState(ctx, "bad")
		assert.Error(t, err)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "login:10.0.0.1"
		for i := 0; i < 2; i++ {
			allowed, err := repo.CheckRateLimit(ctx, key, 2, time.Second)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := repo.CheckRateLimit(ctx, key, 2, time.Second)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(time.Second + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, key, 2, time.Second)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisStateRepository(nil, time.Hour)
		_, err := repo.GetSession(ctx, "x")
		assert.ErrorIs(t, err, errNilClient)
		assert.ErrorIs(t, Ping(ctx, nil), errNilClient)
	})

	t.Run("PingAndClose", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
		assert.NoError(t, Close(client))
		assert.NoError(t, Close(nil))
	})
}
