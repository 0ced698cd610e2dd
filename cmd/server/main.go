// Command server starts the code review HTTP API.
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

	"github.com/redis/go-redis/v9"

	httpserver "github.com/fairyhunter13/ai-code-reviewer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/cache/rediscache"
	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/queue/redisq"
	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-code-reviewer/internal/app"
	"github.com/fairyhunter13/ai-code-reviewer/internal/config"
	"github.com/fairyhunter13/ai-code-reviewer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		slog.Error("db migrate failed", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("redis url invalid", slog.Any("error", err))
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()

	jobRepo := postgres.NewJobRepo(pool)
	dlqRepo := postgres.NewDLQRepo(pool)
	userRepo := postgres.NewUserRepo(pool)
	cache := rediscache.New(rdb, cfg.CacheKeyPrefix, cfg.CacheTTL())
	queue := redisq.New(rdb, cfg.QueueName, cfg.Visibility(), cfg.MaxReceiveCount)

	if cfg.DataRetentionDays > 0 {
		cleanupSvc := postgres.NewCleanupService(pool, cfg.DataRetentionDays)
		go cleanupSvc.RunPeriodic(ctx, cfg.CleanupInterval)
		slog.Info("cleanup service started",
			slog.Int("retention_days", cfg.DataRetentionDays),
			slog.Duration("interval", cfg.CleanupInterval))
	}

	srv := &httpserver.Server{
		Cfg:    cfg,
		Submit: usecase.NewSubmitService(jobRepo, userRepo, queue, cache, cfg.MaxContentBytes),
		DLQ:    usecase.NewDLQService(dlqRepo, jobRepo, queue),
		Stats:  usecase.NewStatsService(jobRepo, dlqRepo, userRepo, queue, cache),
		DBCheck: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
		RedisCheck: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}

	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
