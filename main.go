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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tasklist/backend/internal/cache"
	"tasklist/backend/internal/config"
	"tasklist/backend/internal/database"
	"tasklist/backend/internal/datemath"
	"tasklist/backend/internal/handlers"
	"tasklist/backend/internal/logger"
	"tasklist/backend/internal/middleware"
	"tasklist/backend/internal/monitoring"
	"tasklist/backend/internal/repositories"
	"tasklist/backend/internal/scheduler"
	"tasklist/backend/internal/services"
	"tasklist/backend/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize", zap.Error(err))
	}
	defer a.close()

	if err := a.serve(ctx); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return
	}
	log.Info("shutdown complete")
}

type app struct {
	cfg       *config.Config
	log       *zap.Logger
	pool      *database.DatabasePool
	cache     *cache.MultiLevelCache
	worker    *worker.Worker
	cron      *scheduler.Scheduler
	router    *gin.Engine
	sweepNow  scheduler.SweepFunc
	sweepJobs *worker.JobQueue
}

// newApp opens storage and wires services, background jobs and routes.
// Nothing runs until start.
func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	pool, err := database.Open(cfg.Database, cfg.GetDatabaseDSN(), log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	a := &app{cfg: cfg, log: log, pool: pool}

	monitor := monitoring.NewMonitor()
	monitor.RegisterHealthCheck("database", pool.HealthContext)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = cache.NewRedisClient(&cache.CacheConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		a.cache = cache.NewMultiLevelCache(cache.NewRedisCacheFromClient(redisClient), cache.WithLogger(log.Named("cache")))
		monitor.RegisterHealthCheck("redis", a.cache.Health)
	} else {
		log.Warn("redis disabled, settings cache is in-memory and sweeps run inline")
		a.cache = cache.NewMultiLevelCache(nil, cache.WithLogger(log.Named("cache")))
	}

	monitor.RegisterStats("cache", a.cache.Stats)
	monitor.RegisterStats("database", pool.Stats)

	store := repositories.NewStore(pool.DB)
	clock := datemath.SystemClock()

	settings := services.NewCachedSettingsService(services.NewSettingsService(store, log.Named("settings")), a.cache, log.Named("settings"))
	recurring := services.NewRecurringEngine(store, log.Named("recurring"))
	tasks := services.NewTaskService(store, recurring, settings, clock, log.Named("tasks"))
	views := services.NewCategorizer(store, settings)
	orderer := services.NewOrderer(store, log.Named("ordering"))
	sweeper := monitor.ObserveSweeper(services.NewSweeper(store, clock, log.Named("sweeper")))

	a.sweepNow = func(ctx context.Context, dryRun bool) error {
		_, err := sweeper.Sweep(ctx, dryRun)
		return err
	}

	if redisClient != nil {
		a.worker = worker.NewWorker(worker.WorkerConfig{
			RedisClient:  redisClient,
			Concurrency:  cfg.Worker.Concurrency,
			PollInterval: cfg.Worker.PollInterval,
			Queues:       cfg.Worker.Queues,
			Logger:       log,
		})
		a.worker.RegisterHandler(worker.JobTypeAutoDeleteSweep, worker.SweepHandler(sweeper, log.Named("sweeper")))
		a.sweepJobs = worker.NewJobQueue(redisClient)
	}

	a.cron = scheduler.New(cfg.SweepLocation(), log)
	if _, err := a.cron.ScheduleSweep(cfg.Sweep.Schedule, !cfg.Sweep.EnableDelete, a.triggerSweep); err != nil {
		a.close()
		return nil, err
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMin: cfg.RateLimit.RequestsPerMin,
			BurstSize:      cfg.RateLimit.BurstSize,
			ClientTTL:      cfg.RateLimit.CleanupInterval,
		})
	}

	a.router = handlers.NewRouter(handlers.RouterConfig{
		Tasks:       handlers.NewTaskHandler(tasks, views, orderer, log.Named("handlers")),
		Settings:    handlers.NewSettingsHandler(settings, log.Named("handlers")),
		Admin:       handlers.NewAdminHandler(sweeper, log.Named("handlers")),
		Monitor:     monitor,
		Auth:        middleware.AuthzConfig{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer},
		RateLimiter: limiter,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Logger:      log,
	})
	return a, nil
}

// triggerSweep hands the scheduled pass to the job queue when redis is
// available so only one worker runs it; otherwise it runs in process.
func (a *app) triggerSweep(ctx context.Context, dryRun bool) error {
	if a.sweepJobs == nil {
		return a.sweepNow(ctx, dryRun)
	}
	queue := worker.DefaultQueue
	if len(a.cfg.Worker.Queues) > 0 {
		queue = a.cfg.Worker.Queues[0]
	}
	job, err := a.sweepJobs.Enqueue(ctx, queue, worker.JobTypeAutoDeleteSweep, worker.SweepPayload(dryRun))
	if err != nil {
		return err
	}
	a.log.Info("auto-delete sweep enqueued", zap.String("job_id", job.ID), zap.Bool("dry_run", dryRun))
	return nil
}

func (a *app) start() {
	if a.worker != nil {
		a.worker.Start(a.cfg.Worker.Concurrency)
	}
	a.cron.Start()
}

// serve blocks until ctx is cancelled or the listener fails.
func (a *app) serve(ctx context.Context) error {
	a.start()

	srv := &http.Server{
		Addr:         a.cfg.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", a.cfg.Server.Environment),
			zap.String("db_driver", a.cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// close stops background work before releasing the connections it uses.
func (a *app) close() {
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.worker != nil {
		a.worker.Stop()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close failed", zap.Error(err))
		}
	}
	if err := a.pool.Close(); err != nil {
		a.log.Warn("database close failed", zap.Error(err))
	}
}
