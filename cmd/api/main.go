package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/ClimateNewsHub/internal/aggregator"
	"github.com/LJTian/ClimateNewsHub/internal/api"
	"github.com/LJTian/ClimateNewsHub/internal/collector"
	"github.com/LJTian/ClimateNewsHub/internal/config"
	"github.com/LJTian/ClimateNewsHub/internal/logger"
	"github.com/LJTian/ClimateNewsHub/internal/metrics"
	"github.com/LJTian/ClimateNewsHub/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New("climate-news-api", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.APIKey == "" {
		log.Warn("RAPIDAPI_KEY not set, every request will be rejected")
	}

	registry := collector.MustRegistry(collector.DefaultSources)
	fetcher := collector.NewPageFetcher(cfg.FetchTimeout, cfg.UserAgent)
	m := metrics.New(prometheus.DefaultRegisterer)
	agg := aggregator.New(registry, fetcher, log, m)

	// 缓存是可选的，Redis 不可用时直接每次抓取
	var cache *storage.Cache
	if cfg.CacheEnabled() {
		cache, err = storage.NewCache(cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			log.Warn("redis unavailable, cache disabled", logger.Error(err))
			cache = nil
		} else {
			defer func() { _ = cache.Close() }()
			log.Info("response cache enabled", logger.String("redis", cfg.RedisAddr), logger.Duration("ttl", cfg.CacheTTL))
		}
	}

	gin.SetMode(cfg.GinMode)
	srv := api.NewServer(registry, agg, cache, log, prometheus.DefaultGatherer)
	router := api.NewRouter(srv, cfg.APIKey, log)

	httpServer := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("starting api server", logger.String("addr", httpServer.Addr), logger.Int("sources", len(registry.All())))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server exit", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down api server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Error(err))
	}
}
