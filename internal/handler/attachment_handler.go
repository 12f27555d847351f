package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lumen-edu/lumen-api/internal/service"
	"github.com/lumen-edu/lumen-api/internal/utils"
)

// AttachmentHandler exposes course material upload endpoints.
type AttachmentHandler struct {
	service service.AttachmentService
	logger  zerolog.Logger
}

// NewAttachmentHandler constructs the handler.
func NewAttachmentHandler(service service.AttachmentService, logger zerolog.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		service: service,
		logger:  logger.With().Str("component", "attachment_handler").Logger(),
	}
}

// RegisterCourseAttachments wires per-course attachment endpoints.
func (h *AttachmentHandler) RegisterCourseAttachments(router fiber.Router) {
	router.Get("/:id/attachments", h.list)
	router.Post("/:id/attachments", h.upload)
}

// Register wires the standalone attachment endpoints.
func (h *AttachmentHandler) Register(router fiber.Router) {
	router.Delete("/:id", h.delete)
}

func (h *AttachmentHandler) upload(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	response, err := h.service.Upload(c.Context(), actorFromContext(c), courseID, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attachment stored", response)
}

func (h *AttachmentHandler) list(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.ListForCourse(c.Context(), courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attachments retrieved", response)
}

func (h *AttachmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), actorFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attachment deleted", nil)
}

func (h *AttachmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound), errors.Is(err, service.ErrAttachmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUploadTypeNotAllowed), errors.Is(err, service.ErrUploadScanFailed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	default:
		h.logger.Error().Err(err).Msg("attachment operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
