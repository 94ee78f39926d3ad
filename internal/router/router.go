package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-contest-api/internal/config"
	"github.com/noah-isme/gema-contest-api/internal/handler"
	"github.com/noah-isme/gema-contest-api/internal/middleware"
	"github.com/noah-isme/gema-contest-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler    *handler.ActivityHandler
	SubmissionHandler  *handler.SubmissionHandler
	LeaderboardHandler *handler.LeaderboardHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	v2 := app.Group("/api/v2", jwtMiddleware)

	activities := v2.Group("/activities")
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(activities)
	}
	if deps.LeaderboardHandler != nil {
		deps.LeaderboardHandler.Register(activities)
	}
	if deps.SubmissionHandler != nil {
		limiter := middleware.RateLimit("submit", cfg.SubmitRateLimit, time.Minute)
		deps.SubmissionHandler.RegisterActivityRoutes(activities, limiter)

		deps.SubmissionHandler.RegisterReports(v2.Group("/submissions"))
	}
}
