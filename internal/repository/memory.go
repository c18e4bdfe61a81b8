package repository

import (
	"context"
	"sync"
	"time"

	"bamboowoods/internal/models"
)

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e memoryEntry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryStateRepository is the in-process fallback used when Redis is
// unavailable. State does not survive a restart.
type MemoryStateRepository struct {
	mu           sync.Mutex
	sessions     map[string]memoryEntry[models.Session]
	dashboards   map[string]memoryEntry[models.DashboardState]
	rateLimits   map[string]*rateLimitEntry
	dashboardTTL time.Duration
	now          func() time.Time
}

func NewMemoryStateRepository(dashboardTTL time.Duration) *MemoryStateRepository {
	if dashboardTTL <= 0 {
		dashboardTTL = models.DashboardStateTTL
	}
	return &MemoryStateRepository{
		sessions:     make(map[string]memoryEntry[models.Session]),
		dashboards:   make(map[string]memoryEntry[models.DashboardState]),
		rateLimits:   make(map[string]*rateLimitEntry),
		dashboardTTL: dashboardTTL,
		now:          time.Now,
	}
}

func (r *MemoryStateRepository) GetSession(_ context.Context, token string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[token]
	if !ok {
		return nil, nil
	}
	if e.expired(r.now()) {
		delete(r.sessions, token)
		return nil, nil
	}
	s := e.value
	return &s, nil
}

func (r *MemoryStateRepository) SaveSession(_ context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.Token] = memoryEntry[models.Session]{value: *session, expiresAt: session.ExpiresAt}
	return nil
}

func (r *MemoryStateRepository) DeleteSession(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r *MemoryStateRepository) GetDashboardState(_ context.Context, sessionID string) (*models.DashboardState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.dashboards[sessionID]
	if !ok {
		return nil, nil
	}
	if e.expired(r.now()) {
		delete(r.dashboards, sessionID)
		return nil, nil
	}
	s := e.value
	return &s, nil
}

func (r *MemoryStateRepository) SaveDashboardState(_ context.Context, state *models.DashboardState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dashboards[state.SessionID] = memoryEntry[models.DashboardState]{
		value:     *state,
		expiresAt: r.now().Add(r.dashboardTTL),
	}
	return nil
}

func (r *MemoryStateRepository) ClearDashboardState(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.dashboards, sessionID)
	return nil
}

func (r *MemoryStateRepository) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}
