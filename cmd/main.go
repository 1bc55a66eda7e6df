package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/adapters/ai"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/adapters/config"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/adapters/errors/noop"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/adapters/errors/sentry"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/adapters/postgres"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/adapters/redis"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/agents"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/api"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/api/health"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/metrics"
	pgrepo "github.com/syedkamrannspark/Cashflow-Backend/internal/repository/postgres"
	redisrepo "github.com/syedkamrannspark/Cashflow-Backend/internal/repository/redis"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/workers"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/workflow"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	// Register Prometheus metrics
	metrics.Init()

	// PostgreSQL
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()
	log.Info("✓ PostgreSQL connected")
	metrics.RegisterDBCollector(metrics.NewDBCollector(log, pgClient.DB()))

	// Redis (optional, used as a read-through cache)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			log.Warnf("Redis unavailable, caching disabled: %v", err)
		} else {
			defer redisClient.Close()
			log.Info("✓ Redis connected")
		}
	}

	// Data sources
	repo := pgrepo.NewCashflowRepository(pgClient.DB())
	var source cashflow.DataSource = repo
	if redisClient != nil {
		source = redisrepo.NewCachedDataSource(repo, redisClient, cfg.Redis.CacheTTL)
	}

	// Agents
	forecastAgent := agents.NewForecastAgent(cfg.Orchestrator.ForecastPeriods)
	var insightAgent agents.Agent
	provider := ai.NewOpenRouterProvider(cfg.AI)
	if provider.Configured() {
		insightAgent = agents.NewInsightAgent(provider, cfg.Orchestrator.InsightRetries, cfg.Orchestrator.RetryBackoff)
		log.Infof("✓ Insight agent configured (model=%s)", cfg.AI.Model)
	} else {
		log.Warn("No LLM API key configured, insight agent disabled")
	}

	// Orchestrator and workflow store
	store := workflow.NewStore()
	orchestrator := agents.NewOrchestrator(source, store, forecastAgent, insightAgent, cfg.Orchestrator)

	// Background maintenance workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewRunRetentionWorker(store, cfg.Workers.RetentionInterval, cfg.Workers.RunRetention))
	scheduler.RegisterWorker(workers.NewCacheWarmWorker(source, cfg.Workers.CacheWarmInterval, redisClient != nil))

	// HTTP server
	handlers := api.NewHandlers(orchestrator, repo, log)
	var healthRedis *goredis.Client
	if redisClient != nil {
		healthRedis = redisClient.Client()
	}
	healthHandler := health.New(log, pgClient.DB(), healthRedis, cfg.App.Name, cfg.App.Version)
	server := api.NewServer(api.ServerConfig{
		Port:        cfg.HTTP.Port,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	}, handlers, healthHandler, log)

	log.Info("System initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	waitForShutdown(cancel, server, scheduler, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func waitForShutdown(cancel context.CancelFunc, server *api.Server, scheduler *workers.Scheduler, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP server shutdown error: %v", err)
	}

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker shutdown error: %v", err)
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(shutdownCtx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
