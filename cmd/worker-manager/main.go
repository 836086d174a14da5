// cmd/worker-manager/main.go
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

	"go.uber.org/zap"

	"phone-finder-workers/internal/api"
	"phone-finder-workers/internal/budget"
	"phone-finder-workers/internal/catalog"
	"phone-finder-workers/internal/common/camunda"
	"phone-finder-workers/internal/common/config"
	"phone-finder-workers/internal/common/database"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/observability"
	"phone-finder-workers/internal/common/oracle"
	"phone-finder-workers/internal/filters"
	"phone-finder-workers/internal/finder"
	"phone-finder-workers/internal/search"
	"phone-finder-workers/pkg/registry"

	fp "phone-finder-workers/internal/workers/finder/find-phones"
	pb "phone-finder-workers/internal/workers/finder/parse-budget"
	psf "phone-finder-workers/internal/workers/finder/parse-search-filters"
	rf "phone-finder-workers/internal/workers/finder/resolve-filters"
	sc "phone-finder-workers/internal/workers/finder/search-catalog"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting phone finder worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init catalog database with retry ---
	var db *database.SQLClient
	err = retryWithBackoff(func() error {
		var err error
		db, err = database.Open(cfg.Database)
		if err != nil {
			return err
		}
		return db.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Catalog database connection")
	if err != nil {
		zapLog.Fatal("catalog database failed after retries", zap.Error(err))
	}
	defer db.Close()
	zapLog.Info("Catalog database connected", zap.String("driver", db.DriverName()))

	checks := map[string]api.Checker{"database": db.Ping}

	// --- Init Redis result cache (optional) ---
	var cache *search.Cache
	if cfg.Search.CacheEnabled && cfg.Database.Redis.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()

		cache = search.NewCache(redis.Client, config.GetDuration(cfg.Search.CacheTTL))
		checks["redis"] = redis.Ping
		zapLog.Info("Redis result cache enabled")
	}

	// --- Finder components ---
	oracleClient := oracle.NewClient(&oracle.Config{
		BaseURL:    cfg.Oracle.BaseURL,
		APIKey:     cfg.Oracle.APIKey,
		Model:      cfg.Oracle.Model,
		Timeout:    config.GetDuration(cfg.Oracle.Timeout),
		MaxRetries: cfg.Oracle.MaxRetries,
		RetryWait:  config.GetDuration(cfg.Oracle.RetryWait),
	}, log)
	finder.OracleTimeout = config.GetDuration(cfg.Oracle.Timeout)

	parser := budget.NewParser(oracleClient, log).
		WithOracleTimeout(config.GetDuration(cfg.Oracle.NumberTimeout))
	resolver := filters.NewResolver(oracleClient, cfg.Oracle.JSONModeEnabled(), log)
	engine := search.NewEngine(
		catalog.NewStore(db.DB, log),
		search.Options{
			StrictLimit:  cfg.Search.StrictLimit,
			RelaxedLimit: cfg.Search.RelaxedLimit,
			RelaxedPool:  cfg.Search.RelaxedPool,
		},
		log,
	).WithCache(cache)
	pipeline := finder.NewPipeline(parser, resolver, engine, log)

	// --- Zeebe workers ---
	var workers []*camunda.Worker
	if cfg.Camunda.Enabled {
		reg, err := registry.LoadRegistry(cfg.Registry.Path)
		if err != nil {
			zapLog.Fatal("activity registry load failed", zap.Error(err))
		}

		zeebe, err := camunda.Connect(ctx, camunda.ConfigFrom(cfg.Camunda), log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		checks["zeebe"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected successfully")

		handlers := map[string]camunda.JobHandler{
			pb.TaskType:  pb.NewHandler(pb.LoadConfig(config.GetWorkerConfig(cfg, pb.TaskType)), parser, log),
			rf.TaskType:  rf.NewHandler(rf.LoadConfig(config.GetWorkerConfig(cfg, rf.TaskType)), resolver, log),
			psf.TaskType: psf.NewHandler(psf.LoadConfig(config.GetWorkerConfig(cfg, psf.TaskType)), budget.NewParser(nil, log), log),
			sc.TaskType:  sc.NewHandler(sc.LoadConfig(config.GetWorkerConfig(cfg, sc.TaskType)), engine, log),
			fp.TaskType:  fp.NewHandler(fp.LoadConfig(config.GetWorkerConfig(cfg, fp.TaskType)), pipeline, log),
		}

		for _, taskType := range []string{pb.TaskType, rf.TaskType, psf.TaskType, sc.TaskType, fp.TaskType} {
			wcfg := config.GetWorkerConfig(cfg, taskType)
			if !wcfg.Enabled {
				zapLog.Info("worker disabled", zap.String("taskType", taskType))
				continue
			}
			w := camunda.NewWorker(taskType, handlers[taskType], reg, obs, log)
			w.Open(zeebe.Zeebe(), wcfg)
			workers = append(workers, w)
		}
		zapLog.Info("Finder workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP API, health and metrics ---
	server := &http.Server{
		Addr: cfg.HTTP.Address,
		Handler: api.NewRouter(api.Deps{
			Service:        cfg.App.Name,
			Parser:         parser,
			FormParser:     budget.NewParser(nil, log),
			Resolver:       resolver,
			Engine:         engine,
			Pipeline:       pipeline,
			Checks:         checks,
			Observability:  obs,
			Logger:         log,
			RequestTimeout: config.GetDuration(cfg.HTTP.RequestTimeout),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
