package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lumen-edu/lumen-api/internal/dto"
	"github.com/lumen-edu/lumen-api/internal/service"
	"github.com/lumen-edu/lumen-api/internal/utils"
)

// TaskHandler exposes task retrieval and submission history endpoints.
type TaskHandler struct {
	tasks   service.TaskService
	history service.HistoryService
	logger  zerolog.Logger
}

// NewTaskHandler constructs the handler.
func NewTaskHandler(tasks service.TaskService, history service.HistoryService, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:   tasks,
		history: history,
		logger:  logger.With().Str("component", "task_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *TaskHandler) Register(router fiber.Router) {
	router.Get("/code/:id", h.getCode)
	router.Get("/code/:id/history", h.codeHistory)
	router.Get("/poll/:id", h.getPoll)
	router.Get("/poll/:id/history", h.pollHistory)
	router.Get("/text/:id", h.getTextInput)
	router.Get("/text/:id/history", h.textHistory)
	router.Get("/theory/:id", h.getTheory)
}

// RegisterCourseTasks wires the per-course task listing endpoint.
func (h *TaskHandler) RegisterCourseTasks(router fiber.Router) {
	router.Get("/:id/tasks", h.listForCourse)
}

func (h *TaskHandler) listForCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summaries, err := h.tasks.ListForCourse(c.Context(), courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "tasks retrieved", summaries)
}

func (h *TaskHandler) getCode(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.tasks.GetCodeTask(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "task retrieved", response)
}

func (h *TaskHandler) getPoll(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.tasks.GetPollTask(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "task retrieved", response)
}

func (h *TaskHandler) getTextInput(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.tasks.GetTextInputTask(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "task retrieved", response)
}

func (h *TaskHandler) getTheory(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.tasks.GetTheoryTask(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "task retrieved", response)
}

func (h *TaskHandler) codeHistory(c *fiber.Ctx) error {
	return h.historyFor(c, h.history.ForCodeTask)
}

func (h *TaskHandler) pollHistory(c *fiber.Ctx) error {
	return h.historyFor(c, h.history.ForPollTask)
}

func (h *TaskHandler) textHistory(c *fiber.Ctx) error {
	return h.historyFor(c, h.history.ForTextInputTask)
}

func (h *TaskHandler) historyFor(c *fiber.Ctx, load func(ctx context.Context, userID, taskID uint) (dto.SubmissionHistoryResponse, error)) error {
	taskID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	response, err := load(c.Context(), userID, taskID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "history retrieved", response)
}

func (h *TaskHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrTaskNotFound), errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	default:
		h.logger.Error().Err(err).Msg("task operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
