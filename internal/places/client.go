// Package places fetches the venue's details and reviews from the Google
// Places API so the key never reaches the browser.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"bamboowoods/internal/config"
	"bamboowoods/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	detailsFields   = "name,rating,user_ratings_total,reviews"
	defaultUpstream = "Failed to fetch from Google"
	cacheKeyPrefix  = "bw:places:"
)

var ErrMissingCredentials = errors.New("missing API credentials")

// UpstreamError is a place details reply whose status is not OK.
type UpstreamError struct {
	Status  string
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

type detailsResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Result       json.RawMessage `json:"result"`
}

type Client struct {
	endpoint   string
	apiKeyEnv  string
	placeIDEnv string
	httpClient *http.Client
	lookupEnv  func(string) (string, bool)
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

func NewClient(cfg config.PlacesConfig, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		apiKeyEnv:  cfg.APIKeyEnv,
		placeIDEnv: cfg.PlaceIDEnv,
		httpClient: &http.Client{Timeout: timeout},
		lookupEnv:  os.LookupEnv,
		logger:     logger,
		cacheTTL:   cfg.CacheTTL,
	}
}

// UseRedisCache caches successful results for ttl.
func (c *Client) UseRedisCache(client *redis.Client, ttl time.Duration) {
	c.redis = client
	if ttl > 0 {
		c.cacheTTL = ttl
	}
}

func (c *Client) credentials() (key, placeID string, err error) {
	key, okKey := c.lookupEnv(c.apiKeyEnv)
	placeID, okPlace := c.lookupEnv(c.placeIDEnv)
	if !okKey || !okPlace || key == "" || placeID == "" {
		return "", "", ErrMissingCredentials
	}
	return key, placeID, nil
}

// Details returns the upstream "result" object verbatim.
func (c *Client) Details(ctx context.Context) (json.RawMessage, error) {
	key, placeID, err := c.credentials()
	if err != nil {
		return nil, err
	}

	cacheKey := cacheKeyPrefix + placeID
	if cached, ok := c.readCache(ctx, cacheKey); ok {
		metrics.IncReviews("cache")
		return cached, nil
	}

	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", detailsFields)
	q.Set("key", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build place details request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncReviews("error")
		return nil, fmt.Errorf("fetch place details: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		metrics.IncReviews("error")
		return nil, fmt.Errorf("read place details: %w", err)
	}

	var details detailsResponse
	if err := json.Unmarshal(body, &details); err != nil {
		metrics.IncReviews("error")
		return nil, fmt.Errorf("decode place details: %w", err)
	}

	if details.Status != "OK" {
		metrics.IncReviews("error")
		msg := details.ErrorMessage
		if msg == "" {
			msg = defaultUpstream
		}
		return nil, &UpstreamError{Status: details.Status, Message: msg}
	}

	metrics.IncReviews("upstream")
	c.writeCache(ctx, cacheKey, details.Result)
	return details.Result, nil
}

func (c *Client) readCache(ctx context.Context, key string) (json.RawMessage, bool) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return nil, false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("reviews cache read failed")
		}
		return nil, false
	}
	return json.RawMessage(val), true
}

func (c *Client) writeCache(ctx context.Context, key string, value json.RawMessage) {
	if c.redis == nil || c.cacheTTL <= 0 || len(value) == 0 {
		return
	}
	if err := c.redis.Set(ctx, key, []byte(value), c.cacheTTL).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("reviews cache write failed")
	}
}
