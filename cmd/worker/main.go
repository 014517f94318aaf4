package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/elitefit-gym/trainer-portal/internal/activity"
	"github.com/elitefit-gym/trainer-portal/internal/app"
	"github.com/elitefit-gym/trainer-portal/internal/auth"
	"github.com/elitefit-gym/trainer-portal/internal/nutrition"
	"github.com/elitefit-gym/trainer-portal/internal/platform/cache"
	"github.com/elitefit-gym/trainer-portal/internal/platform/db"
	"github.com/elitefit-gym/trainer-portal/internal/profile"
	"github.com/elitefit-gym/trainer-portal/internal/workouts"
	"github.com/elitefit-gym/trainer-portal/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	statsCache := cache.NewStatsCache(redisClient, cfg.StatsCacheTTL)

	authService := auth.NewService(auth.NewRepository(pool))
	profileService := profile.NewService(profile.NewRepository(pool), logger, cfg.DefaultTimezone)
	activityService := activity.NewService(activity.NewRepository(pool), statsCache, logger)
	workoutsService := workouts.NewService(workouts.NewRepository(pool), statsCache, logger)
	nutritionService := nutrition.NewService(nutrition.NewRepository(pool), statsCache, logger)

	warmupJob := jobs.NewStatsWarmupJob(activityService, workoutsService, nutritionService, profileService, pool, logger)
	purgeJob := jobs.NewSessionPurgeJob(authService, logger)

	warmupTask, err := jobs.NewStatsWarmupTask("active")
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	purgeTask, err := jobs.NewSessionPurgeTask()
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStatsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskSessionPurge, Handler: purgeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 4 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 4 * * *", Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
