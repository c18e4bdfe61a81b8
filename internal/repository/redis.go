package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bamboowoods/internal/config"
	"bamboowoods/internal/models"

	"github.com/redis/go-redis/v9"
)

var errNilClient = errors.New("redis client is nil")

const (
	sessionKeyPrefix   = "bw:session:"
	dashboardKeyPrefix = "bw:dashboard:"
	rateLimitKeyPrefix = "bw:rate_limit:"
)

type RedisStateRepository struct {
	client       *redis.Client
	dashboardTTL time.Duration
}

// NewRedisClient builds a client from config. It does not dial.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisStateRepository(client *redis.Client, dashboardTTL time.Duration) *RedisStateRepository {
	if dashboardTTL <= 0 {
		dashboardTTL = models.DashboardStateTTL
	}
	return &RedisStateRepository{
		client:       client,
		dashboardTTL: dashboardTTL,
	}
}

func (r *RedisStateRepository) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisStateRepository) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if r.client == nil {
		return errNilClient
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

func (r *RedisStateRepository) del(ctx context.Context, key string) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from redis: %w", key, err)
	}
	return nil
}

func (r *RedisStateRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	ok, err := r.getJSON(ctx, sessionKeyPrefix+token, &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// SaveSession stores the session until its expiry.
func (r *RedisStateRepository) SaveSession(ctx context.Context, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.Token)
	}
	return r.setJSON(ctx, sessionKeyPrefix+session.Token, session, ttl)
}

func (r *RedisStateRepository) DeleteSession(ctx context.Context, token string) error {
	return r.del(ctx, sessionKeyPrefix+token)
}

func (r *RedisStateRepository) GetDashboardState(ctx context.Context, sessionID string) (*models.DashboardState, error) {
	var s models.DashboardState
	ok, err := r.getJSON(ctx, dashboardKeyPrefix+sessionID, &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStateRepository) SaveDashboardState(ctx context.Context, state *models.DashboardState) error {
	return r.setJSON(ctx, dashboardKeyPrefix+state.SessionID, state, r.dashboardTTL)
}

func (r *RedisStateRepository) ClearDashboardState(ctx context.Context, sessionID string) error {
	return r.del(ctx, dashboardKeyPrefix+sessionID)
}

// CheckRateLimit counts hits on key within a fixed window.
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	k := rateLimitKeyPrefix + key
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, k, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return count <= int64(limit), nil
}

func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return errNilClient
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
