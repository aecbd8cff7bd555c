package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

type HealthHandler struct {
	inspector   store.Inspector
	environment string
}

func NewHealthHandler(inspector store.Inspector, environment string) *HealthHandler {
	return &HealthHandler{inspector: inspector, environment: environment}
}

// Check always answers 200; a failing store shows up in the db field.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := h.inspector.Ping(ctx); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Environment: h.environment,
		DB:          dbStatus,
	})
}
