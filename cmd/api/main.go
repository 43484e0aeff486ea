package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/mailer"
	"storefront/internal/objectstore"
	"storefront/internal/ratelimit"
	cartrepo "storefront/internal/repository/cart"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
	sessionrepo "storefront/internal/repository/session"
	userrepo "storefront/internal/repository/user"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"

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
	logger = logger.Named("api")

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	store, err := objectstore.New(cfg.Storage, logger)
	if err != nil {
		logger.Fatal("init object storage", zap.Error(err))
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Fatal("ensure bucket", zap.String("bucket", cfg.Storage.Bucket), zap.Error(err))
	}

	mail, err := mailer.New(cfg.Mail, cfg.ClientURL, logger)
	if err != nil {
		logger.Fatal("init mailer", zap.Error(err))
	}

	tokens, err := usersvc.NewTokenManager(cfg.SecretKey)
	if err != nil {
		logger.Fatal("init tokens", zap.Error(err))
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo, store, logger)
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool), productRepo)
	userService := usersvc.New(userrepo.NewPostgres(dbpool, logger), sessionrepo.NewPostgres(dbpool), tokens, mail, store, logger)

	deps := httpserver.Deps{
		CartSvc:    cartService,
		UserSvc:    userService,
		ProductSvc: productService,
		FacetSvc:   categorysvc.New(categoryrepo.NewPostgres(dbpool)),
		ClientURL:  cfg.ClientURL,

		TrustedProxies: cfg.TrustedProxies,
	}

	limiter, redisClient, err := ratelimit.New(ctx, cfg.RateLimit)
	if err != nil {
		logger.Fatal("init rate limiter", zap.Error(err))
	}
	if limiter != nil {
		defer func() { _ = redisClient.Close() }()
		deps.Limiter = limiter
		logger.Info("rate limiting enabled", zap.String("redis", cfg.RateLimit.RedisAddr), zap.Int("max", cfg.RateLimit.Max), zap.Duration("window", cfg.RateLimit.Window))
	} else {
		logger.Warn("rate limiting disabled, REDIS_ADDR is not set")
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps)
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
