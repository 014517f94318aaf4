package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/elitefit-gym/trainer-portal/internal/activity"
	"github.com/elitefit-gym/trainer-portal/internal/app"
	"github.com/elitefit-gym/trainer-portal/internal/auth"
	"github.com/elitefit-gym/trainer-portal/internal/nutrition"
	"github.com/elitefit-gym/trainer-portal/internal/observability"
	"github.com/elitefit-gym/trainer-portal/internal/platform/cache"
	"github.com/elitefit-gym/trainer-portal/internal/platform/db"
	"github.com/elitefit-gym/trainer-portal/internal/profile"
	"github.com/elitefit-gym/trainer-portal/internal/roster"
	"github.com/elitefit-gym/trainer-portal/internal/shared"
	"github.com/elitefit-gym/trainer-portal/internal/view"
	"github.com/elitefit-gym/trainer-portal/internal/workouts"
	"github.com/elitefit-gym/trainer-portal/jobs"
	"github.com/elitefit-gym/trainer-portal/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if err := db.Migrate(ctx, pool, migrations.Files, logger); err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

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

	sessionManager := shared.NewSessionManager(redisClient, "elitefit_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	statsCache := cache.NewStatsCache(redisClient, cfg.StatsCacheTTL)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	profileRepo := profile.NewRepository(pool)
	profileService := profile.NewService(profileRepo, logger, cfg.DefaultTimezone)
	profileHandler := profile.NewHandler(logger, profileService, authService, templates, csrfManager)

	rosterRepo := roster.NewRepository(pool)
	rosterService := roster.NewService(rosterRepo, logger)
	rosterHandler := roster.NewHandler(logger, rosterService, templates, csrfManager)

	workoutsRepo := workouts.NewRepository(pool)
	workoutsService := workouts.NewService(workoutsRepo, statsCache, logger)
	workoutsHandler := workouts.NewHandler(logger, workoutsService, templates, csrfManager, profileService,
		app.RosterMemberSource{Service: rosterService})

	nutritionRepo := nutrition.NewRepository(pool)
	nutritionService := nutrition.NewService(nutritionRepo, statsCache, logger)
	nutritionHandler := nutrition.NewHandler(logger, nutritionService, templates, csrfManager, profileService)

	activityRepo := activity.NewRepository(pool)
	activityService := activity.NewService(activityRepo, statsCache, logger)
	activityHandler := activity.NewHandler(logger, activityService, templates, csrfManager, profileService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		RosterHandler:    rosterHandler,
		WorkoutsHandler:  workoutsHandler,
		NutritionHandler: nutritionHandler,
		ActivityHandler:  activityHandler,
		ProfileHandler:   profileHandler,
		ActivityService:  activityService,
		WorkoutsService:  workoutsService,
		NutritionService: nutritionService,
		ProfileService:   profileService,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
