package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lumen-edu/lumen-api/internal/dto"
	"github.com/lumen-edu/lumen-api/internal/models"
	"github.com/lumen-edu/lumen-api/internal/service"
	"github.com/lumen-edu/lumen-api/pkg/telegram"
)

// Handler routes Telegram updates to platform services.
type Handler struct {
	client    *telegram.Client
	sessions  SessionStore
	users     service.UserService
	courses   service.CourseService
	tasks     service.TaskService
	grading   service.GradingService
	presenter *presenter
	logger    zerolog.Logger
}

// NewHandler constructs the update handler.
func NewHandler(client *telegram.Client, sessions SessionStore, users service.UserService, courses service.CourseService, tasks service.TaskService, grading service.GradingService, logger zerolog.Logger) *Handler {
	return &Handler{
		client:    client,
		sessions:  sessions,
		users:     users,
		courses:   courses,
		tasks:     tasks,
		grading:   grading,
		presenter: newPresenter(),
		logger:    logger.With().Str("component", "bot_handler").Logger(),
	}
}

// HandleUpdate dispatches one Telegram update.
func (h *Handler) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return h.handleMessage(ctx, update.Message)
	default:
		return nil
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg.From == nil || msg.Chat == nil || msg.From.IsBot {
		return nil
	}

	user, err := h.users.EnsureTelegramUser(ctx, msg.From.ID, msg.From.Username, msg.From.FullName())
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	switch telegram.Command(msg) {
	case "start":
		if err := h.sessions.Clear(ctx, msg.Chat.ID); err != nil {
			h.logger.Warn().Err(err).Msg("failed to clear session")
		}
		_, err := h.client.SendHTML(ctx, msg.Chat.ID, h.presenter.welcome(user.FullName))
		return err
	case "help":
		_, err := h.client.SendHTML(ctx, msg.Chat.ID, h.presenter.help())
		return err
	case "courses":
		return h.sendCourseList(ctx, msg.Chat.ID)
	case "cancel":
		if err := h.sessions.Clear(ctx, msg.Chat.ID); err != nil {
			return err
		}
		_, err := h.client.SendHTML(ctx, msg.Chat.ID, "Cancelled.")
		return err
	case "":
		return h.handleText(ctx, msg, user)
	default:
		_, err := h.client.SendHTML(ctx, msg.Chat.ID, "Unknown command. Try /help.")
		return err
	}
}

// handleText feeds a plain message into the answer flow when one is pending.
func (h *Handler) handleText(ctx context.Context, msg *telegram.Message, user models.User) error {
	session, err := h.sessions.Get(ctx, msg.Chat.ID)
	if err != nil {
		return err
	}

	switch session.Step {
	case StepAwaitingCode:
		result, err := h.grading.GradeCode(ctx, user.ID, dto.CodeGradeRequest{
			TaskID: session.TaskID,
			Source: msg.Text,
		})
		return h.deliverVerdict(ctx, msg.Chat.ID, result, err)
	case StepAwaitingText:
		result, err := h.grading.GradeTextInput(ctx, user.ID, dto.TextInputGradeRequest{
			TaskID: session.TaskID,
			Answer: msg.Text,
		})
		return h.deliverVerdict(ctx, msg.Chat.ID, result, err)
	default:
		_, err := h.client.SendHTML(ctx, msg.Chat.ID, "Pick a task first with /courses.")
		return err
	}
}

func (h *Handler) handleCallback(ctx context.Context, query *telegram.CallbackQuery) error {
	if query.From == nil || query.Message == nil || query.Message.Chat == nil {
		return nil
	}
	chatID := query.Message.Chat.ID

	user, err := h.users.EnsureTelegramUser(ctx, query.From.ID, query.From.Username, query.From.FullName())
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	if err := h.client.AnswerCallbackQuery(ctx, query.ID, ""); err != nil {
		h.logger.Warn().Err(err).Msg("failed to answer callback query")
	}

	parts := strings.Split(query.Data, ":")
	switch parts[0] {
	case "course":
		id, err := callbackID(parts, 1)
		if err != nil {
			return err
		}
		return h.sendCourse(ctx, chatID, id)
	case "tasks":
		id, err := callbackID(parts, 1)
		if err != nil {
			return err
		}
		return h.sendTaskList(ctx, chatID, id)
	case "task":
		if len(parts) != 3 {
			return fmt.Errorf("malformed callback data %q", query.Data)
		}
		id, err := callbackID(parts, 2)
		if err != nil {
			return err
		}
		return h.sendTask(ctx, chatID, parts[1], id)
	case "opt":
		if len(parts) != 3 {
			return fmt.Errorf("malformed callback data %q", query.Data)
		}
		taskID, err := callbackID(parts, 1)
		if err != nil {
			return err
		}
		optionID, err := callbackID(parts, 2)
		if err != nil {
			return err
		}
		result, err := h.grading.GradePoll(ctx, user.ID, dto.PollGradeRequest{
			TaskID:   taskID,
			OptionID: optionID,
		})
		return h.deliverVerdict(ctx, chatID, result, err)
	default:
		h.logger.Debug().Str("data", query.Data).Msg("ignoring unknown callback")
		return nil
	}
}

func (h *Handler) sendCourseList(ctx context.Context, chatID int64) error {
	listing, err := h.courses.List(ctx, 0, 50)
	if err != nil {
		return h.sendFailure(ctx, chatID, err)
	}

	text, keyboard := h.presenter.courseList(listing.Courses)
	if keyboard == nil {
		_, err = h.client.SendHTML(ctx, chatID, text)
		return err
	}
	_, err = h.client.SendWithKeyboard(ctx, chatID, text, keyboard)
	return err
}

func (h *Handler) sendCourse(ctx context.Context, chatID int64, courseID uint) error {
	course, err := h.courses.Get(ctx, courseID)
	if err != nil {
		return h.sendFailure(ctx, chatID, err)
	}

	text, keyboard := h.presenter.course(course)
	_, err = h.client.SendWithKeyboard(ctx, chatID, text, keyboard)
	return err
}

func (h *Handler) sendTaskList(ctx context.Context, chatID int64, courseID uint) error {
	summaries, err := h.tasks.ListForCourse(ctx, courseID)
	if err != nil {
		return h.sendFailure(ctx, chatID, err)
	}

	text, keyboard := h.presenter.taskList(summaries)
	if keyboard == nil {
		_, err = h.client.SendHTML(ctx, chatID, text)
		return err
	}
	_, err = h.client.SendWithKeyboard(ctx, chatID, text, keyboard)
	return err
}

func (h *Handler) sendTask(ctx context.Context, chatID int64, kind string, taskID uint) error {
	switch kind {
	case string(models.TaskKindCode):
		task, err := h.tasks.GetCodeTask(ctx, taskID)
		if err != nil {
			return h.sendFailure(ctx, chatID, err)
		}
		if err := h.sessions.Put(ctx, chatID, Session{Step: StepAwaitingCode, CourseID: task.CourseID, TaskID: taskID}); err != nil {
			return err
		}
		_, err = h.client.SendHTML(ctx, chatID, h.presenter.codeTask(task))
		return err
	case string(models.TaskKindPoll):
		task, err := h.tasks.GetPollTask(ctx, taskID)
		if err != nil {
			return h.sendFailure(ctx, chatID, err)
		}
		text, keyboard := h.presenter.pollTask(task)
		_, err = h.client.SendWithKeyboard(ctx, chatID, text, keyboard)
		return err
	case string(models.TaskKindTextInput):
		task, err := h.tasks.GetTextInputTask(ctx, taskID)
		if err != nil {
			return h.sendFailure(ctx, chatID, err)
		}
		if err := h.sessions.Put(ctx, chatID, Session{Step: StepAwaitingText, CourseID: task.CourseID, TaskID: taskID}); err != nil {
			return err
		}
		_, err = h.client.SendHTML(ctx, chatID, h.presenter.textTask(task))
		return err
	case string(models.TaskKindTheory):
		task, err := h.tasks.GetTheoryTask(ctx, taskID)
		if err != nil {
			return h.sendFailure(ctx, chatID, err)
		}
		_, err = h.client.SendHTML(ctx, chatID, h.presenter.theoryTask(task))
		return err
	default:
		return fmt.Errorf("unknown task kind %q", kind)
	}
}

// deliverVerdict renders a grading outcome, including the rejections that
// carry no verdict: exhausted attempts and invalid code runs.
func (h *Handler) deliverVerdict(ctx context.Context, chatID int64, result dto.GradeResult, gradeErr error) error {
	if gradeErr != nil {
		var invalid *service.CodeInvalidError
		switch {
		case errors.Is(gradeErr, service.ErrAttemptsLimitExceeded):
			if err := h.sessions.Clear(ctx, chatID); err != nil {
				h.logger.Warn().Err(err).Msg("failed to clear session")
			}
			_, err := h.client.SendHTML(ctx, chatID, h.presenter.attemptsExhausted())
			return err
		case errors.As(gradeErr, &invalid):
			// Keep the session so the student can resubmit.
			_, err := h.client.SendHTML(ctx, chatID, h.presenter.executionFailed(invalid.TimedOut))
			return err
		case errors.Is(gradeErr, service.ErrTaskNotFound):
			_, err := h.client.SendHTML(ctx, chatID, "This task no longer exists.")
			return err
		default:
			return h.sendFailure(ctx, chatID, gradeErr)
		}
	}

	if result.IsCorrect || result.AttemptsRemaining == 0 {
		if err := h.sessions.Clear(ctx, chatID); err != nil {
			h.logger.Warn().Err(err).Msg("failed to clear session")
		}
	}

	_, err := h.client.SendHTML(ctx, chatID, h.presenter.gradeResult(result))
	return err
}

func (h *Handler) sendFailure(ctx context.Context, chatID int64, cause error) error {
	h.logger.Error().Err(cause).Int64("chat_id", chatID).Msg("bot operation failed")
	_, err := h.client.SendHTML(ctx, chatID, "Something went wrong, please try again.")
	return err
}

func callbackID(parts []string, index int) (uint, error) {
	if index >= len(parts) {
		return 0, fmt.Errorf("malformed callback data")
	}
	parsed, err := strconv.ParseUint(parts[index], 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("malformed callback id %q", parts[index])
	}
	return uint(parsed), nil
}
