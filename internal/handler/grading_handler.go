package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lumen-edu/lumen-api/internal/dto"
	"github.com/lumen-edu/lumen-api/internal/service"
	"github.com/lumen-edu/lumen-api/internal/utils"
)

// GradingHandler exposes answer submission endpoints.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/code", h.gradeCode)
	router.Post("/poll", h.gradePoll)
	router.Post("/text", h.gradeText)
}

func (h *GradingHandler) gradeCode(c *fiber.Ctx) error {
	var payload dto.CodeGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	result, err := h.service.GradeCode(c.Context(), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", result)
}

func (h *GradingHandler) gradePoll(c *fiber.Ctx) error {
	var payload dto.PollGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	result, err := h.service.GradePoll(c.Context(), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", result)
}

func (h *GradingHandler) gradeText(c *fiber.Ctx) error {
	var payload dto.TextInputGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	result, err := h.service.GradeTextInput(c.Context(), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", result)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	var invalid *service.CodeInvalidError
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAttemptsLimitExceeded):
		return utils.SendError(c, fiber.StatusConflict, "attempts limit exceeded")
	case errors.As(err, &invalid):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, invalid.Error(), fiber.Map{
			"timed_out": invalid.TimedOut,
			"stdout":    invalid.Stdout,
			"stderr":    invalid.Stderr,
		})
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("grading operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
