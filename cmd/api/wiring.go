package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/settlement"
	"github.com/angelmondragon/storefront-backend/internal/transactions"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

func buildDependencies(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, registry *prometheus.Registry) (routes.Dependencies, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	userRepo := users.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	transactionRepo := transactions.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("auth service: %w", err)
	}

	userService, err := users.NewService(users.ServiceParams{
		DB:     dbClient,
		Repo:   userRepo,
		Outbox: emitter,
		Logger: logg,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("users service: %w", err)
	}

	productService, err := products.NewService(products.ServiceParams{
		DB:                dbClient,
		Repo:              productRepo,
		Outbox:            emitter,
		Logger:            logg,
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("products service: %w", err)
	}

	cartService, err := cart.NewService(cartRepo, dbClient, productRepo)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("cart service: %w", err)
	}

	settlementService, err := settlement.NewService(settlement.ServiceParams{
		DB:           dbClient,
		Carts:        cartRepo,
		Products:     productRepo,
		Transactions: transactionRepo,
		Outbox:       emitter,
		Metrics:      metrics.NewSettlementMetrics(registry),
		Logger:       logg,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("settlement service: %w", err)
	}

	transactionService, err := transactions.NewService(transactionRepo)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("transactions service: %w", err)
	}

	return routes.Dependencies{
		DB:           dbClient,
		Redis:        redisClient,
		RateLimiter:  redisClient,
		Idempotency:  redisClient,
		Gatherer:     registry,
		Auth:         authService,
		Users:        userService,
		Products:     productService,
		Cart:         cartService,
		Settlement:   settlementService,
		Transactions: transactionService,
	}, nil
}
