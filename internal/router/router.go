package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/society-points-api/internal/config"
	"github.com/noah-isme/society-points-api/internal/handler"
	"github.com/noah-isme/society-points-api/internal/middleware"
	"github.com/noah-isme/society-points-api/internal/observability"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	LoggedActivityHandler *handler.LoggedActivityHandler
	RedemptionHandler     *handler.RedemptionHandler
	SocietyHandler        *handler.SocietyHandler
	ReferenceHandler      *handler.ReferenceHandler
	MembershipHandler     *handler.MembershipHandler
	UserHandler           *handler.UserHandler
	AuditHandler          *handler.AuditHandler
	HealthChecks          map[string]handler.Pinger
	JWTMiddleware         fiber.Handler
	CurrentUser           fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	// Use provided auth middlewares, or no-ops if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	currentUser := deps.CurrentUser
	if currentUser == nil {
		currentUser = func(c *fiber.Ctx) error { return c.Next() }
	}

	authed := api.Group("", jwtMiddleware, currentUser)

	if deps.MembershipHandler != nil {
		deps.MembershipHandler.Register(authed)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.Register(authed.Group("/users"))
	}
	if deps.LoggedActivityHandler != nil {
		deps.LoggedActivityHandler.Register(authed.Group("/logged-activities"))
	}
	if deps.RedemptionHandler != nil {
		deps.RedemptionHandler.Register(authed.Group("/redemptions"))
	}
	if deps.SocietyHandler != nil {
		deps.SocietyHandler.Register(authed.Group("/societies"))
	}
	if deps.ReferenceHandler != nil {
		deps.ReferenceHandler.Register(authed)
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(authed.Group("/audit-logs", middleware.RequireRole(workflow.RoleSuccessOps, workflow.RoleCIO)))
	}
}
