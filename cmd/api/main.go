package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-points-api/internal/config"
	"github.com/noah-isme/society-points-api/internal/database"
	"github.com/noah-isme/society-points-api/internal/handler"
	"github.com/noah-isme/society-points-api/internal/middleware"
	"github.com/noah-isme/society-points-api/internal/notify"
	"github.com/noah-isme/society-points-api/internal/repository"
	"github.com/noah-isme/society-points-api/internal/router"
	"github.com/noah-isme/society-points-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, cfg.AppEnv == "development")
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer natsConn.Close()

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcher := notify.NewDispatcher(notify.NewBrokerPublisher(natsConn, redisClient, cfg.NotifyChannel), cfg.NotifySender, cfg.NotifyBuffer, logger)
	go dispatcher.Run(dispatcherCtx)

	validate := validator.New(validator.WithRequiredStructEnabled())

	transactor := repository.NewTransactor(db)
	societyRepo := repository.NewSocietyRepository(db)
	loggedActivityRepo := repository.NewLoggedActivityRepository(db)
	redemptionRepo := repository.NewRedemptionRepository(db)
	activityTypeRepo := repository.NewActivityTypeRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	userRepo := repository.NewUserRepository(db)
	centerRepo := repository.NewCenterRepository(db)

	auditService := service.NewAuditService(repository.NewAuditLogRepository(db), logger)
	userService := service.NewUserService(userRepo, centerRepo, logger)

	loggedActivityService := service.NewLoggedActivityService(service.LoggedActivityDependencies{
		Transactor: transactor,
		Activities: loggedActivityRepo,
		Societies:  societyRepo,
		Users:      userRepo,
		Valuator:   service.NewActivityValuator(activityTypeRepo, activityRepo, cfg.ClaimWindowDays),
		Audit:      auditService,
		Notifier:   dispatcher,
		Cache:      redisClient,
		Validator:  validate,
		Logger:     logger,
	}, service.LoggedActivityOptions{
		BatchLimit: cfg.ApprovalBatchLimit,
		SummaryTTL: cfg.SummaryCacheTTL,
	})

	redemptionService := service.NewRedemptionService(service.RedemptionDependencies{
		Transactor:  transactor,
		Redemptions: redemptionRepo,
		Societies:   societyRepo,
		Centers:     centerRepo,
		Audit:       auditService,
		Notifier:    dispatcher,
		Validator:   validate,
		Logger:      logger,
	}, service.RedemptionPolicy{
		AllowOverdraw:     cfg.RedemptionAllowOverdraw,
		DeletePendingOnly: cfg.RedemptionDeletePending,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		LoggedActivityHandler: handler.NewLoggedActivityHandler(loggedActivityService, handler.MoreInfoLimit{
			Max:    cfg.MoreInfoRateLimit,
			Window: cfg.MoreInfoRateLimitWindow,
		}, logger),
		RedemptionHandler: handler.NewRedemptionHandler(redemptionService, logger),
		SocietyHandler:    handler.NewSocietyHandler(service.NewSocietyService(societyRepo, loggedActivityRepo, validate, logger), logger),
		ReferenceHandler: handler.NewReferenceHandler(
			service.NewActivityTypeService(activityTypeRepo, validate, logger),
			service.NewActivityService(activityRepo, activityTypeRepo, validate, logger),
			service.NewRoleService(roleRepo, validate, logger),
			userService,
			logger,
		),
		MembershipHandler: handler.NewMembershipHandler(service.NewMembershipService(service.MembershipDependencies{
			Transactor: transactor,
			Users:      userRepo,
			Roles:      roleRepo,
			Societies:  societyRepo,
			Audit:      auditService,
			Validator:  validate,
			Logger:     logger,
		}), logger),
		UserHandler:  handler.NewUserHandler(loggedActivityService, logger),
		AuditHandler: handler.NewAuditHandler(auditService, logger),
		HealthChecks: map[string]handler.Pinger{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
		CurrentUser:   middleware.CurrentUser(userService, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)

	stopDispatcher()
	select {
	case <-dispatcher.Done():
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("notification dispatcher did not drain in time")
	}
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
