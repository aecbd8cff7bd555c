package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/services"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authService *services.AuthService,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	onboardingHandler *handlers.OnboardingHandler,
) {
	app.Get("/health", healthHandler.Check)

	api := app.Group("/api", middleware.RequestContext(cfg.RequestTimeout))

	// General API rate limiter, per IP
	api.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimit,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Auth: stricter limit
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Onboarding: identity is optional unless a route demands it
	onboarding := api.Group("/onboarding",
		middleware.OptionalJWT(cfg),
		middleware.ResolveIdentity(authService),
	)
	onboarding.Post("", onboardingHandler.Submit)

	// Fixed paths go before /:id
	onboarding.Get("/stats", onboardingHandler.Stats)
	onboarding.Get("/all", onboardingHandler.Recent)
	onboarding.Get("/questions", onboardingHandler.Questions)
	onboarding.Get("/me", middleware.RequireIdentity(), onboardingHandler.Me)
	onboarding.Get("/database-info", middleware.AdminRequired(cfg), onboardingHandler.DatabaseInfo)
	onboarding.Get("/user/:userId", onboardingHandler.ByUser)
	onboarding.Get("/:id", onboardingHandler.Get)
}
