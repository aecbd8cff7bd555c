package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/questions"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/services"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Question sets
	registry, err := questions.LoadFromFile(cfg.QuestionSetPath)
	if err != nil {
		slog.Error("failed to load question sets", "path", cfg.QuestionSetPath, "error", err)
		os.Exit(1)
	}
	set, err := registry.Get(cfg.QuestionSetVersion)
	if err != nil {
		slog.Error("question set not available", "version", cfg.QuestionSetVersion, "error", err)
		os.Exit(1)
	}
	slog.Info("question set loaded", "version", set.Version, "questions", len(set.Questions))

	policy, err := services.ParsePolicy(cfg.SubmissionPolicy)
	if err != nil {
		slog.Error("invalid submission policy", "error", err)
		os.Exit(1)
	}

	// Store
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := database.Open(openCtx, cfg)
	cancelOpen()
	if err != nil {
		slog.Error("database connection failed", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	// Persisted ERROR+ logs
	logHandler := logging.AttachSink(st)

	// Log cleanup
	cleanupDone := make(chan struct{})
	logging.StartCleanup(st, cfg.LogRetention, cleanupDone)

	// Services
	authService := services.NewAuthService(st, cfg)
	submissionService := services.NewSubmissionService(st, set, policy,
		services.WithDegradedMode(cfg.DegradedMode),
		services.WithRecentLimit(cfg.RecentLimit),
	)
	statsService := services.NewStatsService(st, set)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(st, cfg.Environment)
	onboardingHandler := handlers.NewOnboardingHandler(submissionService, statsService, st, cfg.RequireAuth)

	// Sentry error tracking
	var first []fiber.Handler
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			first = append(first, sentryfiber.New(sentryfiber.Options{
				Repanic:         true,
				WaitForDelivery: false,
			}))
		}
	}

	app := routes.NewApp(cfg, first...)
	routes.Setup(app, cfg, authService, authHandler, healthHandler, onboardingHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "policy", string(policy), "driver", cfg.StoreDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	logHandler.Stop()
	sentry.Flush(2 * time.Second)

	closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelClose()
	if err := st.Close(closeCtx); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
