package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workorder-engine/internal/api/http/handlers"
	"github.com/spec-kit/workorder-engine/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Approvals      *handlers.ApprovalsHandler
	Emergencies    *handlers.EmergenciesHandler
	Schedules      *handlers.SchedulesHandler
	Jobs           *handlers.JobsHandler
	AuthMiddleware *auth.Middleware
	CronMiddleware *auth.CronMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/acknowledge", cfg.Tickets.Acknowledge)
	tickets.Post("/:id/start", cfg.Tickets.StartWork)
	tickets.Post("/:id/complete", cfg.Tickets.Complete)
	tickets.Post("/:id/verify", cfg.Tickets.Verify)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/reject", cfg.Tickets.Reject)
	tickets.Post("/:id/hold", cfg.Tickets.Hold)
	tickets.Post("/:id/resume", cfg.Tickets.Resume)
	tickets.Put("/:id/status", cfg.Tickets.SetStatus)

	tickets.Post("/:id/approvals", cfg.Approvals.RequestApproval)
	tickets.Get("/:id/approvals", cfg.Approvals.ListApprovals)
	api.Post("/approvals/:id/approve", cfg.Approvals.ApproveRequest)
	api.Post("/approvals/:id/deny", cfg.Approvals.DenyRequest)
	api.Get("/categories/:id/approval-check", cfg.Approvals.CheckThreshold)

	tickets.Get("/:id/incident", cfg.Emergencies.GetIncident)
	tickets.Post("/:id/incident/contain", cfg.Emergencies.Contain)
	tickets.Post("/:id/incident/resolve", cfg.Emergencies.Resolve)

	schedules := api.Group("/schedules")
	schedules.Post("", cfg.Schedules.CreateSchedule)
	schedules.Get("/:id", cfg.Schedules.GetSchedule)
	schedules.Put("/:id", cfg.Schedules.UpdateSchedule)

	jobs := app.Group("/jobs", cfg.CronMiddleware.Handle)
	jobs.Post("/escalation/run", cfg.Jobs.RunEscalation)
	jobs.Post("/pm-generation/run", cfg.Jobs.RunPMGeneration)
}
