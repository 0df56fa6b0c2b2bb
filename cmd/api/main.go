package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/workorder-engine/internal/api/http"
	"github.com/spec-kit/workorder-engine/internal/api/http/handlers"
	"github.com/spec-kit/workorder-engine/internal/auth"
	"github.com/spec-kit/workorder-engine/internal/config"
	"github.com/spec-kit/workorder-engine/internal/events"
	"github.com/spec-kit/workorder-engine/internal/jobs"
	"github.com/spec-kit/workorder-engine/internal/observability"
	"github.com/spec-kit/workorder-engine/internal/persistence"
	"github.com/spec-kit/workorder-engine/internal/repository"
	"github.com/spec-kit/workorder-engine/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	approvalRepo := repository.NewApprovalRepository(pool)
	incidentRepo := repository.NewIncidentRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	workOrderService := service.NewWorkOrderService(service.WorkOrderDependencies{
		TicketRepo:   ticketRepo,
		ApprovalRepo: approvalRepo,
		IncidentRepo: incidentRepo,
		CategoryRepo: categoryRepo,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
	})
	approvalService := service.NewApprovalService(service.ApprovalDependencies{
		ApprovalRepo: approvalRepo,
		TicketRepo:   ticketRepo,
		CategoryRepo: categoryRepo,
		Dispatcher:   dispatcher,
	})
	emergencyService := service.NewEmergencyService(service.EmergencyDependencies{
		IncidentRepo: incidentRepo,
		TicketRepo:   ticketRepo,
		Dispatcher:   dispatcher,
	})
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Notifier:   notificationService,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		SampleSize: cfg.Jobs.ResultSampleSize,
	})
	schedulerService := service.NewSchedulerService(service.SchedulerDependencies{
		ScheduleRepo: scheduleRepo,
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		WorkOrders:   workOrderService,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
		SampleSize:   cfg.Jobs.ResultSampleSize,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, 60)
	authMiddleware := auth.NewMiddleware(tokenManager)
	cronMiddleware := auth.NewCronMiddleware(cfg.Auth.CronSecretHash)
	lease := jobs.NewLease(redis.Client, cfg.Jobs.LeaseTTL())

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Tickets:        handlers.NewTicketsHandler(workOrderService),
		Approvals:      handlers.NewApprovalsHandler(approvalService),
		Emergencies:    handlers.NewEmergenciesHandler(emergencyService),
		Schedules:      handlers.NewSchedulesHandler(schedulerService),
		Jobs:           handlers.NewJobsHandler(escalationService, schedulerService, lease),
		AuthMiddleware: authMiddleware,
		CronMiddleware: cronMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
