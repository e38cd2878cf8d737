package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/onboarding-portal-api/internal/config"
	"github.com/noah-isme/onboarding-portal-api/internal/database"
	"github.com/noah-isme/onboarding-portal-api/internal/handler"
	"github.com/noah-isme/onboarding-portal-api/internal/middleware"
	"github.com/noah-isme/onboarding-portal-api/internal/repository"
	"github.com/noah-isme/onboarding-portal-api/internal/router"
	"github.com/noah-isme/onboarding-portal-api/internal/service"
	cloud "github.com/noah-isme/onboarding-portal-api/pkg/cloudinary"
	"github.com/noah-isme/onboarding-portal-api/pkg/localfs"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.IsProduction() {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured; using in-process locks and no dashboard cache")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadMaxSizeBytes) + 1<<20,
	})

	storage := buildStorage(app, cfg, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	clientRepo := repository.NewClientRepository(db)
	centerRepo := repository.NewServiceCenterRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	onboardingRepo := repository.NewOnboardingRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.NotificationChannel, natsConn, validate, logger)
	dashboardService := service.NewDashboardService(dashboardRepo, clientRepo, taskRepo, redisClient, cfg.DashboardCacheTTL, logger)
	centerService := service.NewServiceCenterService(centerRepo, validate, activityService, logger)
	locker := service.NewClientLocker(redisClient, cfg.ClientLockTTL, cfg.ClientLockTTL/2, logger)
	clientService := service.NewClientService(service.ClientServiceDeps{
		Clients:        clientRepo,
		ServiceCenters: centerRepo,
		Tasks:          taskRepo,
		Onboarding:     onboardingRepo,
		Locker:         locker,
		Validator:      validate,
		Activity:       activityService,
		Notifier:       notificationService,
		Cache:          dashboardService,
		TaskTemplates:  cfg.TaskTemplates,
	}, logger)
	documentService := service.NewDocumentService(service.DocumentServiceDeps{
		Clients:      clientRepo,
		Tasks:        taskRepo,
		Documents:    documentRepo,
		Onboarding:   onboardingRepo,
		Storage:      storage,
		Locker:       locker,
		Validator:    validate,
		Notifier:     notificationService,
		Cache:        dashboardService,
		MaxFileBytes: cfg.UploadMaxSizeBytes,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	notificationService.Start(ctx)

	checks := map[string]handler.DependencyCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowedOrigins})
	router.Register(app, cfg, router.Dependencies{
		ClientHandler:        handler.NewClientHandler(clientService, documentService, activityService, logger),
		DocumentHandler:      handler.NewDocumentHandler(documentService, logger),
		ServiceCenterHandler: handler.NewServiceCenterHandler(centerService, logger),
		ActivityHandler:      handler.NewActivityHandler(activityService, logger),
		DashboardHandler:     handler.NewDashboardHandler(dashboardService, logger),
		PortalHandler:        handler.NewPortalHandler(dashboardService, clientService, documentService, logger),
		NotificationHandler:  handler.NewNotificationHandler(notificationService, logger, 30*time.Second),
		HealthChecks:         checks,
		JWTMiddleware:        middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}

func buildStorage(app *fiber.App, cfg config.Config, logger zerolog.Logger) service.FileStorage {
	if cfg.StorageDriver == config.StorageDriverCloudinary {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		return uploader
	}

	store, err := localfs.New(cfg.StorageLocalPath, cfg.StoragePublicBaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare local document storage")
	}
	app.Static(cfg.StoragePublicBaseURL, store.Root())
	return store
}
