package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/crm-service/internal/api/http/handlers"
	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/observability"
	"github.com/spec-kit/crm-service/internal/policy"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Leads          *handlers.LeadsHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   fiber.Handler
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	if cfg.LoginLimiter != nil {
		app.Post("/login", cfg.LoginLimiter, cfg.Auth.Login)
	} else {
		app.Post("/login", cfg.Auth.Login)
	}

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/me", cfg.Auth.Me)
	protected.Get("/permissions/check", cfg.Auth.CheckPermission)

	leads := protected.Group("/leads")
	leads.Get("/", cfg.Leads.List)
	leads.Post("/", cfg.Leads.Create)
	leads.Post("/assign", cfg.Leads.Assign)
	leads.Post("/import", auth.RequireCapability(policy.ResourceLeads, policy.ActionImportExport), cfg.Leads.Import)
	leads.Get("/:id", cfg.Leads.Get)
	leads.Put("/:id", cfg.Leads.Update)
	leads.Delete("/:id", cfg.Leads.Delete)
	leads.Put("/:id/stage", cfg.Leads.ChangeStage)
	leads.Get("/:id/timeline", cfg.Leads.Timeline)

	protected.Get("/teams/:leaderId", cfg.Staff.TeamMembers)
	protected.Post("/teams/:leaderId/members", cfg.Staff.AddTeamMember)
	protected.Delete("/teams/:leaderId/members/:userId", cfg.Staff.RemoveTeamMember)
	protected.Put("/users/:id/role", auth.RequireCapability(policy.ResourceSettings, policy.ActionManage), cfg.Staff.SetRole)
}
