package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/user/catalog-agent/internal/adapter/chromedpbrowser"
	"github.com/user/catalog-agent/internal/adapter/httpfetch"
	"github.com/user/catalog-agent/internal/adapter/postgres"
	redis_adapter "github.com/user/catalog-agent/internal/adapter/redis"
	"github.com/user/catalog-agent/internal/usecase"
	"github.com/user/catalog-agent/pkg/config"
	"github.com/user/catalog-agent/pkg/logger"
	"github.com/user/catalog-agent/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Logger ---
	logLevel := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()

	// --- Database Connections ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	pgConnString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
	dbpool, err := pgxpool.New(ctx, pgConnString)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	slog.Info("PostgreSQL connection pool established")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		slog.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("Redis connection established")

	// --- Scraping Adapters ---
	browser, err := chromedpbrowser.New(cfg.MaxConcurrency, cfg.PageLoadTimeout, cfg.OpTimeout)
	if err != nil {
		slog.Error("Unable to initialize browser pool", "error", err)
		os.Exit(1)
	}
	fetcher := httpfetch.New(cfg.PageLoadTimeout, cfg.UserAgent)

	// --- Repositories ---
	queueRepo := redis_adapter.NewQueueRepo(rdb)
	collectionRepo := postgres.NewCollectionRepo(dbpool)
	productRepo := postgres.NewProductRepo(dbpool)
	imageRepo := postgres.NewImageRepo(dbpool)
	optionRepo := postgres.NewOptionRepo(dbpool)
	variantRepo := postgres.NewVariantRepo(dbpool)

	// --- Use Cases ---
	rules := usecase.DefaultScrapeRules()
	discovery := usecase.NewDiscovery(fetcher, browser, collectionRepo, productRepo, rules,
		usecase.DiscoveryConfig{
			StoreBaseURL:    cfg.StoreBaseURL,
			SettleInterval:  cfg.SettleInterval,
			MaxScrollPasses: cfg.MaxScrollPasses,
		})
	extractor := usecase.NewProductExtractor(fetcher, browser, productRepo, imageRepo,
		optionRepo, variantRepo, rules,
		usecase.ExtractorConfig{
			SettleInterval:  cfg.SettleInterval,
			Enumeration:     cfg.OptionEnumeration,
			CollapseByPrice: cfg.CollapseVariantsByPrice,
		})

	worker := usecase.NewWorker(queueRepo, discovery, extractor,
		cfg.ExtractTimeout, cfg.ItemDelay, cfg.IdleInterval)

	slog.Info("Worker starting", "store", cfg.StoreBaseURL)
	worker.Run(ctx)
	slog.Info("Worker exiting")
}
