package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	resp, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return authError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": resp})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return authError(c, err)
	}

	return c.JSON(resp)
}

func authError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrConflict):
		status, message = fiber.StatusConflict, err.Error()
	case errors.Is(err, services.ErrUserNotFound):
		status, message = fiber.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrUnauthorized):
		status, message = fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrStorageUnavailable):
		status, message = fiber.StatusServiceUnavailable, "Service temporarily unavailable"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: message})
}
