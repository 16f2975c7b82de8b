package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

// RedisRouteCache stores routing replies as JSON with a TTL.
type RedisRouteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRouteCache(client *redis.Client, ttl time.Duration) *RedisRouteCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisRouteCache{client: client, ttl: ttl}
}

// Key identifies a request by everything that changes the router's reply.
func Key(req domain.RouteRequest) string {
	return strings.Join([]string{
		"route",
		string(req.TransportMode),
		req.Origin.String(),
		req.Destination.String(),
		req.Return(),
		req.Language,
	}, ":")
}

func (c *RedisRouteCache) Get(ctx context.Context, req domain.RouteRequest) (_ []domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if c.client == nil {
		return nil, false, errors.New("route cache: redis client is nil")
	}

	raw, err := c.client.Get(ctx, Key(req)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: %w", err)
	}

	var routes []domain.Route
	if err := json.Unmarshal(raw, &routes); err != nil {
		return nil, false, fmt.Errorf("get route cache: decode entry: %w", err)
	}
	return routes, true, nil
}

func (c *RedisRouteCache) Put(ctx context.Context, req domain.RouteRequest, routes []domain.Route) error {
	if c.client == nil {
		return errors.New("route cache: redis client is nil")
	}

	raw, err := json.Marshal(routes)
	if err != nil {
		return fmt.Errorf("put route cache: encode entry: %w", err)
	}
	if err := c.client.Set(ctx, Key(req), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("put route cache: %w", err)
	}
	return nil
}
