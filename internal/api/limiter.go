package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"bamboowoods/internal/config"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client address. Buckets unused for
// IdleTTL are swept on a later call.
type rateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	cfg       config.RateLimitConfig
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(cfg config.RateLimitConfig) *rateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &rateLimiter{
		limiters:  make(map[string]*limiterEntry),
		cfg:       cfg,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *rateLimiter) allow(key string) bool {
	if l.cfg.RPS <= 0 {
		return true
	}
	return l.getLimiter(key).Allow()
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.cfg.IdleTTL {
		l.sweep(now)
	}

	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{lim: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.lim
}

// sweep must be called with mu held.
func (l *rateLimiter) sweep(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.cfg.IdleTTL {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

func (l *rateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// clientKey identifies the caller for rate limiting and login auditing. When
// header is set the first address in it wins, as written by the proxy in
// front of the server.
func clientKey(r *http.Request, header string) string {
	if header != "" {
		if raw := r.Header.Get(header); raw != "" {
			first, _, _ := strings.Cut(raw, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
