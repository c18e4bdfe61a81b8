package repository

import (
	"context"
	"sync/atomic"
	"time"

	"bamboowoods/internal/domain"
	"bamboowoods/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStateRepository serves from primary until a call fails, then
// switches to fallback and retries primary once per recoveryInterval.
type FailoverStateRepository struct {
	primary   domain.StateRepository
	fallback  domain.StateRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverStateRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverStateRepository) markDown(op string, err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Str("op", op).Msg("primary state repository failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

func (r *FailoverStateRepository) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("primary state repository recovered")
	}
}

func withFailover[T any](r *FailoverStateRepository, op string, call func(domain.StateRepository) (T, error)) (T, error) {
	if r.usePrimary() {
		v, err := call(r.primary)
		if err == nil {
			r.markUp()
			return v, nil
		}
		r.markDown(op, err)
	}
	return call(r.fallback)
}

func (r *FailoverStateRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	return withFailover(r, "get_session", func(s domain.StateRepository) (*models.Session, error) {
		return s.GetSession(ctx, token)
	})
}

func (r *FailoverStateRepository) SaveSession(ctx context.Context, session *models.Session) error {
	_, err := withFailover(r, "save_session", func(s domain.StateRepository) (struct{}, error) {
		return struct{}{}, s.SaveSession(ctx, session)
	})
	return err
}

func (r *FailoverStateRepository) DeleteSession(ctx context.Context, token string) error {
	// both stores may hold the session depending on when primary failed
	_ = r.fallback.DeleteSession(ctx, token)
	_, err := withFailover(r, "delete_session", func(s domain.StateRepository) (struct{}, error) {
		return struct{}{}, s.DeleteSession(ctx, token)
	})
	return err
}

func (r *FailoverStateRepository) GetDashboardState(ctx context.Context, sessionID string) (*models.DashboardState, error) {
	return withFailover(r, "get_dashboard_state", func(s domain.StateRepository) (*models.DashboardState, error) {
		return s.GetDashboardState(ctx, sessionID)
	})
}

func (r *FailoverStateRepository) SaveDashboardState(ctx context.Context, state *models.DashboardState) error {
	_, err := withFailover(r, "save_dashboard_state", func(s domain.StateRepository) (struct{}, error) {
		return struct{}{}, s.SaveDashboardState(ctx, state)
	})
	return err
}

func (r *FailoverStateRepository) ClearDashboardState(ctx context.Context, sessionID string) error {
	_, err := withFailover(r, "clear_dashboard_state", func(s domain.StateRepository) (struct{}, error) {
		return struct{}{}, s.ClearDashboardState(ctx, sessionID)
	})
	return err
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return withFailover(r, "check_rate_limit", func(s domain.StateRepository) (bool, error) {
		return s.CheckRateLimit(ctx, key, limit, window)
	})
}
