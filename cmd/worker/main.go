// Command worker runs the review pipeline: the main queue consumer, the
// dead-letter handler, the queue reaper, and the stuck-job sweeper.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	aicl "github.com/fairyhunter13/ai-code-reviewer/internal/adapter/ai"
	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/cache/rediscache"
	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/linter/eslintd"
	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/queue/redisq"
	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-code-reviewer/internal/analyzer"
	"github.com/fairyhunter13/ai-code-reviewer/internal/config"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
	"github.com/fairyhunter13/ai-code-reviewer/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// The worker exposes its own /metrics endpoint for scraping.
	observability.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	cache := rediscache.New(rdb, cfg.CacheKeyPrefix, cfg.CacheTTL())
	queue := redisq.New(rdb, cfg.QueueName, cfg.Visibility(), cfg.MaxReceiveCount)

	var aiClient domain.AIClient
	if cfg.EnableAI {
		aiClient = aicl.New(cfg)
		slog.Info("ai detector enabled", slog.String("model", cfg.AIModel))
	}
	var lintEngine domain.LintEngine
	if cfg.LinterURL != "" {
		lintEngine = eslintd.New(cfg.LinterURL, cfg.LinterTimeout)
		slog.Info("external linter enabled", slog.String("url", cfg.LinterURL))
	}

	lintRules, err := analyzer.LoadLintRuleMap(cfg.LinterRulesPath)
	if err != nil {
		slog.Error("linter rules load failed", slog.Any("error", err))
		os.Exit(1)
	}

	an := analyzer.New(analyzer.Options{
		EnableAI:          cfg.EnableAI,
		MinFileLinesForAI: cfg.MinFileLinesForAI,
		MaxFileLinesForAI: cfg.MaxFileLinesForAI,
		AIModel:           cfg.AIModel,
		AIMaxPromptTokens: cfg.AIMaxPromptTokens,
		AIRequestTimeout:  cfg.AIRequestTimeout(),
		AllowForceFail:    cfg.AllowForceFail,
		LintRules:         lintRules,
	}, aiClient, lintEngine)

	w := worker.New(jobRepo, dlqRepo, queue, cache, an,
		cfg.MaxReceiveCount, cfg.LongPoll(), cfg.StoreRetryAttempts, cfg.StoreRetryDelay)
	dlqHandler := worker.NewDLQHandler(dlqRepo, jobRepo, queue, cfg.LongPoll())
	sweeper := worker.NewStuckJobSweeper(jobRepo, cfg.StuckJobMaxAge, cfg.StuckJobSweepEvery)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = w.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = dlqHandler.Run(ctx)
	}()
	go queue.RunReaper(ctx, cfg.QueueReapInterval)
	go sweeper.Run(ctx)

	if cfg.DataRetentionDays > 0 {
		cleanupSvc := postgres.NewCleanupService(pool, cfg.DataRetentionDays)
		go cleanupSvc.RunPeriodic(ctx, cfg.CleanupInterval)
	}

	<-ctx.Done()
	slog.Info("shutdown signal received, finishing in-flight work")
	wg.Wait()
	slog.Info("worker stopped")
}
