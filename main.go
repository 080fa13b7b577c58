package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"dropweight/adapters/cache/sqldb"
	"dropweight/adapters/httpapi"
	"dropweight/adapters/rng"
	"dropweight/adapters/stats/bayes"
	"dropweight/adapters/stats/mle"
	"dropweight/app"
	"dropweight/internal"
	"dropweight/internal/config"
	"dropweight/ports"
)

func main() {
	logger := internal.NewDefaultLogger()

	// .env is optional; environment variables win either way.
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(cfg.Server.GinMode)

	cache, err := openCache(cfg.Cache, logger)
	if err != nil {
		log.Fatalf("Failed to open weight cache: %v", err)
	}
	if cache == nil {
		logger.Warn("CACHE_DSN not set, results will be recomputed every call")
	}

	service := app.NewInferenceService(
		mle.NewEstimator(),
		bayes.NewEstimator(rng.NewDeterministic()),
		cache,
	)

	server := httpapi.NewServer(service, cfg.Estimator.MLE, cfg.Estimator.Bayes)
	if err := server.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// openCache connects the configured durable cache, or returns nil for none
func openCache(cfg config.CacheConfig, logger *internal.Logger) (ports.WeightCache, error) {
	if cfg.DSN == "" {
		return nil, nil
	}
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	cache := sqldb.NewCache(db)
	if err := cache.Migrate(context.Background()); err != nil {
		return nil, err
	}
	logger.Info("Weight cache ready (%s)", cfg.Driver)
	return cache, nil
}
