package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ratthapon/storefront/internal/adapter/handler"
	"github.com/ratthapon/storefront/internal/adapter/storage"
	"github.com/ratthapon/storefront/internal/config"
	"github.com/ratthapon/storefront/internal/core/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")

	// Initialize adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb, cfg.ProductCacheTTL)

	// Warm the product cache from the catalog
	products, err := mysqlAdapter.ListProducts(ctx)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	if err := redisAdapter.InvalidateAll(ctx); err != nil {
		logger.Warn("failed to invalidate product cache", zap.Error(err))
	}
	if err := redisAdapter.SetProducts(ctx, products); err != nil {
		logger.Warn("failed to warm product cache", zap.Error(err))
	}
	logger.Info("warmed product cache", zap.Int("products", len(products)))

	// Initialize services
	pricing := service.NewPricingEngine(service.PricingConfig{
		BulkRate:      cfg.BulkRate,
		MemberRate:    cfg.MemberRate,
		BulkThreshold: cfg.BulkThreshold,
	})
	carts := service.NewCartService(mysqlAdapter, redisAdapter, pricing, logger)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(carts, mysqlAdapter, logger)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Routes(),
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("http server stopped")

	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}
