package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"trip-route-service/internal/adapters/repositories"
	"trip-route-service/internal/config"
	"trip-route-service/internal/platform/db"
	"trip-route-service/internal/platform/obs"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg, cfgErr := config.Load()
	logger := obs.NewLogger(os.Stdout, cfg.LogLevel, "dbtool")
	slog.SetDefault(logger)
	if cfgErr != nil {
		logger.Error("invalid configuration", slog.Any("error", cfgErr))
		os.Exit(1)
	}
	if envErr != nil {
		logger.Info("no .env file found (using environment variables)")
	}

	seed := flag.Bool("seed", true, "load demo trips after creating the schema")
	seedPath := flag.String("seed-path", cfg.SeedPath, "JSON file with demo trips")
	flag.Parse()

	ctx := context.Background()
	pool, err := db.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect failed", slog.Any("error", err))
		os.Exit(1)
	}

	err = initAndSeed(ctx, pool, *seed, *seedPath, logger)
	pool.Close()
	if err != nil {
		logger.Error("dbtool failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func initAndSeed(ctx context.Context, q db.Querier, seed bool, seedPath string, logger *slog.Logger) error {
	logger.Info("initializing database schema")
	if err := repositories.InitSchema(ctx, q); err != nil {
		return err
	}
	logger.Info("schema ready")

	if !seed {
		return nil
	}

	logger.Info("seeding database", slog.String("path", seedPath))
	n, err := repositories.SeedFromJSON(ctx, q, seedPath)
	if err != nil {
		return err
	}
	logger.Info("seeding complete", slog.Int("inserted", n))
	return nil
}
