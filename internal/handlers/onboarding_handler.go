package handlers

import (
	"errors"
	"strconv"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/answers"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

// Body keys that are not answers.
var reservedKeys = []string{"userId", "username"}

type OnboardingHandler struct {
	submissions *services.SubmissionService
	stats       *services.StatsService
	inspector   store.Inspector
	requireAuth bool
}

func NewOnboardingHandler(submissions *services.SubmissionService, stats *services.StatsService, inspector store.Inspector, requireAuth bool) *OnboardingHandler {
	return &OnboardingHandler{
		submissions: submissions,
		stats:       stats,
		inspector:   inspector,
		requireAuth: requireAuth,
	}
}

func (h *OnboardingHandler) Submit(c *fiber.Ctx) error {
	id := middleware.GetIdentity(c)
	if h.requireAuth && id.Anonymous {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: "Authentication required",
		})
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil || body == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid request body",
			Kind:  string(answers.InvalidType),
		})
	}
	username, _ := body["username"].(string)
	for _, k := range reservedKeys {
		delete(body, k)
	}

	res, err := h.submissions.Submit(c.UserContext(), services.Submission{
		Identity: id,
		Username: username,
		Answers:  body,
	})

	var verr *answers.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(validationResponse(verr))
	case errors.Is(err, services.ErrStorageUnavailable):
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		resp := dto.StorageErrorResponse{Error: "Failed to save onboarding data"}
		if res != nil {
			resp.Placeholder = &dto.Placeholder{ID: res.ID, UserID: res.UserID, Persisted: false}
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	case err != nil:
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SubmitResponse{
		Message: "Onboarding data saved successfully",
		ID:      res.ID,
		UserID:  res.UserID,
	})
}

func validationResponse(verr *answers.ValidationError) dto.ErrorResponse {
	details := make([]dto.ErrorDetail, len(verr.Fields))
	for i, f := range verr.Fields {
		details[i] = dto.ErrorDetail{Field: f.Field, Kind: string(f.Kind), Message: f.Message}
	}
	return dto.ErrorResponse{
		Error:   "Validation failed",
		Kind:    string(verr.Kind()),
		Details: details,
	}
}

func (h *OnboardingHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Compute(c.UserContext(), c.Query("question"))
	if errors.Is(err, services.ErrUnknownQuestion) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Kind:  string(answers.UnknownField),
		})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(stats)
}

func (h *OnboardingHandler) Recent(c *fiber.Ctx) error {
	list, err := h.submissions.Recent(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dto.RecentResponse{Total: len(list), Onboardings: list})
}

func (h *OnboardingHandler) ByUser(c *fiber.Ctx) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return badPagination(c)
	}
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		return badPagination(c)
	}

	list, total, err := h.submissions.ListByUser(c.UserContext(), c.Params("userId"), page, limit)
	if errors.Is(err, services.ErrInvalidInput) {
		return badPagination(c)
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dto.UserOnboardingsResponse{
		Onboardings: list,
		Pagination:  dto.NewPagination(page, limit, total),
	})
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func badPagination(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: "page must be a positive integer and limit between 1 and 100",
	})
}

// Me returns the newest response of the calling identity.
func (h *OnboardingHandler) Me(c *fiber.Ctx) error {
	resp, err := h.submissions.Latest(c.UserContext(), middleware.GetIdentity(c).UserID)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Onboarding not found"})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dto.OnboardingResponse{Onboarding: resp})
}

func (h *OnboardingHandler) Get(c *fiber.Ctx) error {
	resp, err := h.submissions.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Onboarding not found"})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dto.OnboardingResponse{Onboarding: resp})
}

// Questions returns the active question set for the wizard.
func (h *OnboardingHandler) Questions(c *fiber.Ctx) error {
	return c.JSON(h.submissions.QuestionSet())
}

func (h *OnboardingHandler) DatabaseInfo(c *fiber.Ctx) error {
	info, err := h.inspector.Describe(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(info)
}

func (h *OnboardingHandler) fail(c *fiber.Ctx, err error) error {
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
		Error: "Service temporarily unavailable",
	})
}
