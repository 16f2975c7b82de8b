package cache

import (
	"context"
	"log/slog"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"

	"golang.org/x/sync/singleflight"
)

// CachedRouter is a read-through cache in front of a RoutingService.
// Concurrent identical misses share one upstream call. Cache failures are
// logged and never returned.
type CachedRouter struct {
	next   ports.RoutingService
	cache  ports.RouteCache
	logger *slog.Logger
	group  singleflight.Group
}

func NewCachedRouter(next ports.RoutingService, cache ports.RouteCache, logger *slog.Logger) *CachedRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRouter{
		next:   next,
		cache:  cache,
		logger: logger.With(slog.String("component", "route_cache")),
	}
}

func (c *CachedRouter) CalculateRoute(ctx context.Context, req domain.RouteRequest) ([]domain.Route, error) {
	routes, ok, err := c.cache.Get(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "route cache read failed", slog.String("key", Key(req)), slog.Any("error", err))
	}
	if ok {
		return routes, nil
	}

	v, err, _ := c.group.Do(Key(req), func() (any, error) {
		routes, err := c.next.CalculateRoute(ctx, req)
		if err != nil {
			return nil, err
		}
		// Empty replies are not cached so a transient "no route" does not stick.
		if len(routes) > 0 {
			if err := c.cache.Put(ctx, req, routes); err != nil {
				c.logger.WarnContext(ctx, "route cache write failed", slog.String("key", Key(req)), slog.Any("error", err))
			}
		}
		return routes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Route), nil
}
