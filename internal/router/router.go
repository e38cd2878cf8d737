package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/onboarding-portal-api/internal/config"
	"github.com/noah-isme/onboarding-portal-api/internal/handler"
	"github.com/noah-isme/onboarding-portal-api/internal/middleware"
	"github.com/noah-isme/onboarding-portal-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ClientHandler        *handler.ClientHandler
	DocumentHandler      *handler.DocumentHandler
	ServiceCenterHandler *handler.ServiceCenterHandler
	ActivityHandler      *handler.ActivityHandler
	DashboardHandler     *handler.DashboardHandler
	PortalHandler        *handler.PortalHandler
	NotificationHandler  *handler.NotificationHandler
	HealthChecks         map[string]handler.DependencyCheck
	JWTMiddleware        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	limit := func(name string) fiber.Handler {
		return middleware.RateLimit(name, cfg.RateLimitMax, rateWindow(cfg))
	}

	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(middleware.AuthRoleAdmin), limit("admin"))
	if deps.ClientHandler != nil {
		deps.ClientHandler.RegisterAdmin(admin.Group("/clients"))
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.Register(admin.Group("/documents"))
	}
	if deps.ServiceCenterHandler != nil {
		deps.ServiceCenterHandler.Register(admin.Group("/service-centers"))
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(admin.Group("/activity"))
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(admin.Group("/dashboard"))
	}

	center := api.Group("/service-center", jwtMiddleware, middleware.RequireRole(middleware.AuthRoleServiceCenter), limit("service_center"))
	if deps.ClientHandler != nil {
		deps.ClientHandler.Register(center.Group("/clients"))
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.Register(center.Group("/documents"))
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(center.Group("/notifications"))
	}

	// Client accounts must carry a client_id claim.
	requireClient := middleware.WithAuth(func(c *fiber.Ctx) error { return c.Next() }, middleware.AuthOptions{Role: middleware.AuthRoleClient})
	portal := api.Group("/client", jwtMiddleware, requireClient, limit("client"))
	if deps.PortalHandler != nil {
		deps.PortalHandler.Register(portal)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(portal.Group("/notifications"))
	}
}

func rateWindow(cfg config.Config) time.Duration {
	if cfg.RateLimitWindow <= 0 {
		return time.Minute
	}
	return cfg.RateLimitWindow
}
