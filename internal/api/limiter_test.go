package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bamboowoods/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	l := newRateLimiter(config.RateLimitConfig{RPS: 0.001, Burst: 1, IdleTTL: time.Minute})
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	for i := 0; i < 50; i++ {
		l.allow(fmt.Sprintf("10.0.0.%d", i))
	}
	assert.Equal(t, 50, l.size())

	now = now.Add(30 * time.Second)
	assert.True(t, l.allow("192.0.2.1"))
	assert.Equal(t, 51, l.size(), "nothing is idle long enough yet")

	now = now.Add(45 * time.Second)
	assert.False(t, l.allow("192.0.2.1"), "an active client keeps its bucket")
	assert.Equal(t, 1, l.size())
}

func TestRateLimiterDisabled(t *testing.T) {
	l := newRateLimiter(config.RateLimitConfig{})
	for i := 0; i < 10; i++ {
		assert.True(t, l.allow("192.0.2.1"))
	}
	assert.Zero(t, l.size())
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:5123"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.1.1.1")

	assert.Equal(t, "10.1.1.1", clientKey(req, ""), "headers are ignored unless configured")
	assert.Equal(t, "203.0.113.7", clientKey(req, "X-Forwarded-For"))

	req.Header.Set("X-Forwarded-For", "not-an-ip")
	assert.Equal(t, "10.1.1.1", clientKey(req, "X-Forwarded-For"))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown", clientKey(req, ""))
}

func TestRateLimitBehindProxy(t *testing.T) {
	e := newTestEnv(t, func(c *config.Config, _ *Deps) {
		c.HTTP.RateLimit = config.RateLimitConfig{RPS: 0.001, Burst: 1}
		c.HTTP.ClientIPHeader = "X-Forwarded-For"
	})

	get := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		e.server.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, get("203.0.113.7"))
	// every request shares the proxy's peer address, but clients are told apart
	assert.Equal(t, http.StatusOK, get("198.51.100.4"))
}
