// Command styledoc serves the sanitizer, the document renderer and cache
// administration over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/styledoc/pkg/api"
	"github.com/dmitrymomot/styledoc/pkg/cache"
	"github.com/dmitrymomot/styledoc/pkg/clientip"
	"github.com/dmitrymomot/styledoc/pkg/config"
	"github.com/dmitrymomot/styledoc/pkg/files"
	"github.com/dmitrymomot/styledoc/pkg/httpserver"
	"github.com/dmitrymomot/styledoc/pkg/logger"
	"github.com/dmitrymomot/styledoc/pkg/metrics"
	"github.com/dmitrymomot/styledoc/pkg/ratelimit"
	"github.com/dmitrymomot/styledoc/pkg/redis"
	"github.com/dmitrymomot/styledoc/pkg/render"
	"github.com/dmitrymomot/styledoc/pkg/requestid"
	"github.com/dmitrymomot/styledoc/pkg/sanitizer"
)

// redisLimitPrefix keeps rate limit counters apart from cache entries.
const redisLimitPrefix = "styledoc:"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "styledoc:", err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env files are fine in production.
	_ = config.LoadEnv()

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
	}
	if cfg.LogLevel != "" {
		logOpts = append(logOpts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy, err := cfg.policy()
	if err != nil {
		return err
	}
	strategy, err := cfg.strategy()
	if err != nil {
		return err
	}

	meterProvider, metricsHandler, err := metrics.NewProvider(cfg.MetricsExporter)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(sctx); err != nil {
			log.Error("metrics: shutdown failed", logger.Error(err))
		}
	}()
	meter := metrics.Meter(meterProvider)

	cacheOpts := []cache.Option{
		cache.WithLogger(log),
		cache.WithDefaultTTL(cfg.CacheTTL),
		cache.WithMemoryCapacity(cfg.CacheMemoryCapacity),
		cache.WithDiskDir(cfg.CacheDir),
	}
	var (
		checks     []httpserver.Check
		limitStore ratelimit.Store
	)
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis: unavailable, running without the remote tier", logger.Error(err))
		} else {
			defer client.Close()
			cacheOpts = append(cacheOpts, cache.WithRemote(redis.NewStorageWithConfig(client, cfg.Redis)))
			checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
			limitStore = ratelimit.NewRedisStore(client, redisLimitPrefix, cfg.Redis.OperationTimeout)
		}
	}

	manager := cache.NewManager(cacheOpts...)
	cached, err := metrics.WrapCache(manager, meter)
	if err != nil {
		_ = manager.Close()
		return err
	}
	defer func() {
		if err := cached.Close(); err != nil {
			log.Error("cache: close failed", logger.Error(err))
		}
	}()

	san, err := metrics.WrapSanitizer(
		sanitizer.New(policy, sanitizer.WithLogger(log), sanitizer.WithStrategy(strategy)),
		meter,
	)
	if err != nil {
		return err
	}

	renderer := render.NewService(san,
		render.WithCache(cached),
		render.WithTTL(cfg.CacheTTL),
		render.WithLogger(log),
	)

	processor := files.NewProcessor(san,
		files.WithCache(cached),
		files.WithTTL(cfg.FileCacheTTL),
		files.WithMaxSize(cfg.FileMaxSize),
		files.WithLogger(log),
	)

	apiOpts := []api.Option{
		api.WithLogger(log),
		api.WithMaxBodySize(cfg.MaxBodySize),
		api.WithFiles(processor),
	}
	resolver := clientip.NewResolver(cfg.TrustedIPHeaders...)
	if cfg.RateLimit.Enabled() {
		if limitStore == nil {
			mem := ratelimit.NewMemoryStore()
			defer mem.Close()
			limitStore = mem
		}
		limiter, err := ratelimit.NewFixedWindow(limitStore, cfg.RateLimit)
		if err != nil {
			return err
		}
		apiOpts = append(apiOpts, api.WithRateLimit(limiter, resolver.Key))
	}

	go cleanupLoop(ctx, manager, cfg.CacheCleanupInterval, log)

	r := chi.NewRouter()
	r.Use(requestid.Middleware, resolver.Middleware, middleware.Recoverer, api.RequestLogger(log))
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, cfg.ReadyTimeout, checks...))
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	r.Mount("/api", api.New(san, renderer, cached, apiOpts...).Routes())

	log.Info("styledoc starting",
		slog.String("env", cfg.Env),
		slog.String("strategy", strategy.String()),
		slog.Any("cache_tiers", manager.Tiers()),
	)

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, cfg.withCORS(r))
}

// cleanupLoop sweeps expired entries from the local tiers until ctx is done.
func cleanupLoop(ctx context.Context, m *cache.Manager, every time.Duration, log *slog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.CleanupExpired(ctx); n > 0 {
				log.InfoContext(ctx, "cache: expired entries removed", slog.Int("count", n))
			}
		}
	}
}
