package service

import (
	"sync"
	"testing"
	"time"

	"bamboowoods/internal/database"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
