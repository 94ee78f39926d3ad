package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-contest-api/internal/config"
	"github.com/noah-isme/gema-contest-api/internal/database"
	"github.com/noah-isme/gema-contest-api/internal/handler"
	"github.com/noah-isme/gema-contest-api/internal/lock"
	"github.com/noah-isme/gema-contest-api/internal/logging"
	"github.com/noah-isme/gema-contest-api/internal/middleware"
	"github.com/noah-isme/gema-contest-api/internal/repository"
	"github.com/noah-isme/gema-contest-api/internal/router"
	"github.com/noah-isme/gema-contest-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger, logCloser := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: cfg.AppEnv == "development",
	})
	defer logCloser.Close()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, cfg.LockTTL, cfg.LockWait, logger)
	} else {
		logger.Warn().Msg("redis not configured, submission locks are process local")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	activityRepo := repository.NewActivityRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	problemRepo := repository.NewProblemRepository(db)

	var (
		judgeBus  *service.JudgeBus
		publisher service.JudgePublisher
	)
	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer conn.Drain()
		judgeBus = service.NewJudgeBus(conn, cfg.JudgeSubject, validate, logger)
		publisher = judgeBus
	} else {
		logger.Warn().Msg("nats not configured, submissions stay pending until a verdict is posted")
	}

	submissionService := service.NewSubmissionService(
		activityRepo,
		submissionRepo,
		locker,
		publisher,
		validate,
		service.SystemClock,
		service.SubmissionOptions{MaxCodeBytes: cfg.MaxCodeBytes, RecentLimit: cfg.RecentSubmissions},
		logger,
	)
	leaderboardService := service.NewLeaderboardService(activityRepo, submissionRepo, studentRepo, cfg.ScoringOptions(), service.SystemClock, logger)
	activityService := service.NewActivityService(activityRepo, problemRepo, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: logger})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:    handler.NewActivityHandler(activityService, logger),
		SubmissionHandler:  handler.NewSubmissionHandler(submissionService, logger),
		LeaderboardHandler: handler.NewLeaderboardHandler(leaderboardService, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	if judgeBus != nil {
		if err := judgeBus.Start(busCtx, submissionService); err != nil {
			logger.Fatal().Err(err).Msg("failed to start verdict consumer")
		}
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
