package main

import (
	"context"
	"fmt"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/seed"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	res, err := seed.Apply(ctx, pool, cfg.Seed)
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
	if res.AdminID == "" {
		logger.Warn("admin user skipped, SEED_ADMIN_PASSWORD is not set")
	}

	logger.Info("seed applied", zap.String("admin_id", res.AdminID), zap.Int("products", res.Products))
}
