package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"trip-route-service/internal/adapters/cache"
	"trip-route-service/internal/adapters/repositories"
	"trip-route-service/internal/adapters/routing"
	"trip-route-service/internal/api"
	"trip-route-service/internal/api/handlers"
	"trip-route-service/internal/config"
	"trip-route-service/internal/platform/db"
	"trip-route-service/internal/platform/obs"
	"trip-route-service/internal/ports"
	"trip-route-service/internal/services"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, the routing provider) behind ports and starts the HTTP server.
func main() {
	envErr := godotenv.Load()

	cfg, cfgErr := config.Load()
	logger := obs.NewLogger(os.Stdout, cfg.LogLevel, "server")
	slog.SetDefault(logger)
	if cfgErr != nil {
		logger.Error("invalid configuration", slog.Any("error", cfgErr))
		os.Exit(1)
	}
	if envErr != nil {
		logger.Info("no .env file found (using environment variables)")
	}

	if err := realMain(cfg, logger); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func realMain(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	pool, err := db.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repositories.InitSchema(ctx, pool); err != nil {
		return err
	}

	router, _, err := routing.FromConfig(cfg)
	if err != nil {
		return err
	}

	rdb := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword)
	if rdb != nil {
		defer rdb.Close()
	}
	router = withRouteCache(router, rdb, cfg.RouteCacheTTL, logger)

	repo := repositories.NewPgTripRepository(pool)
	trips := services.NewTripLogger(router, repo, cfg.RouteLanguage, cfg.RequestTimeout, logger)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	checks := map[string]handlers.Check{"postgres": pool.Ping}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	return Run(ctx, cfg, api.NewRouter(trips, checks, logger), signals, nil, logger)
}

// withRouteCache puts the Redis cache in front of router when Redis is configured.
func withRouteCache(router ports.RoutingService, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) ports.RoutingService {
	if rdb == nil {
		logger.Info("REDIS_ADDR not set, route cache disabled")
		return router
	}
	return cache.NewCachedRouter(router, cache.NewRedisRouteCache(rdb, ttl), logger)
}

type ListenFunc func(srv *http.Server) error

var defaultListen ListenFunc = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

// Run serves handler until a signal arrives, ctx is done or the listener fails.
func Run(ctx context.Context, cfg config.Config, handler http.Handler, signals <-chan os.Signal, listen ListenFunc, logger *slog.Logger) error {
	if listen == nil {
		listen = defaultListen
	}

	// Write timeout leaves room for a cold-cache routing call with retries.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		errCh <- listen(srv)
	}()

	select {
	case sig := <-signals:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
