package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/workorder-engine/internal/config"
	"github.com/spec-kit/workorder-engine/internal/events"
	"github.com/spec-kit/workorder-engine/internal/jobs"
	"github.com/spec-kit/workorder-engine/internal/observability"
	"github.com/spec-kit/workorder-engine/internal/persistence"
	"github.com/spec-kit/workorder-engine/internal/repository"
	"github.com/spec-kit/workorder-engine/internal/service"
)

var tenantID string

func main() {
	root := &cobra.Command{
		Use:          "workorder-jobs",
		Short:        "Run work order background sweeps from the command line",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&tenantID, "tenant", "", "tenant identifier (required)")

	root.AddCommand(escalateCmd(), generatePMCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func escalateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "escalate",
		Short: "Escalate unacknowledged tickets that exceeded their response threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), "escalation-sweep", func(ctx context.Context, rt *runtime) (any, error) {
				return rt.escalation.RunSweep(ctx, tenantID)
			})
		},
	}
}

func generatePMCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-pm",
		Short: "Generate tickets for preventive maintenance schedules that are due",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), "pm-generation", func(ctx context.Context, rt *runtime) (any, error) {
				return rt.scheduler.RunSweep(ctx, tenantID)
			})
		},
	}
}

type runtime struct {
	escalation *service.EscalationService
	scheduler  *service.SchedulerService
}

func withRuntime(ctx context.Context, job string, run func(context.Context, *runtime) (any, error)) error {
	if tenantID == "" {
		return fmt.Errorf("--tenant is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

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

	rt := &runtime{
		escalation: service.NewEscalationService(service.EscalationDependencies{
			TicketRepo: ticketRepo,
			UserRepo:   userRepo,
			Notifier:   notificationService,
			Dispatcher: dispatcher,
			Metrics:    metrics,
			Logger:     logger,
			SampleSize: cfg.Jobs.ResultSampleSize,
		}),
		scheduler: service.NewSchedulerService(service.SchedulerDependencies{
			ScheduleRepo: scheduleRepo,
			TicketRepo:   ticketRepo,
			UserRepo:     userRepo,
			WorkOrders:   workOrderService,
			Dispatcher:   dispatcher,
			Metrics:      metrics,
			Logger:       logger,
			SampleSize:   cfg.Jobs.ResultSampleSize,
		}),
	}

	lease := jobs.NewLease(redis.Client, cfg.Jobs.LeaseTTL())
	held, release, _ := lease.Acquire(ctx, job+":"+tenantID)
	if !held {
		return fmt.Errorf("%s is already running for tenant %s", job, tenantID)
	}
	defer release()

	summary, err := run(ctx, rt)
	if err != nil {
		logger.Error("sweep failed", zap.String("job", job), zap.Error(err))
		return err
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
