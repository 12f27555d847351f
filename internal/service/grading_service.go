package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/dto"
	"github.com/lumen-edu/lumen-api/internal/events"
	"github.com/lumen-edu/lumen-api/internal/models"
	"github.com/lumen-edu/lumen-api/internal/observability"
	"github.com/lumen-edu/lumen-api/internal/repository"
	"github.com/lumen-edu/lumen-api/internal/rules"
	"github.com/lumen-edu/lumen-api/pkg/playground"
)

// ErrTaskNotFound indicates the referenced task does not exist.
var ErrTaskNotFound = errors.New("task not found")

// ErrAttemptsLimitExceeded indicates the user has spent every configured
// attempt for the task. The rejected call consumes no attempt and persists
// nothing.
var ErrAttemptsLimitExceeded = errors.New("attempts limit exceeded")

// CodeInvalidError reports a sandbox run that did not produce a verdict:
// the code crashed or exceeded the task's deadline. It is distinct from an
// incorrect verdict and nothing is persisted for it.
type CodeInvalidError struct {
	Source   string
	Stdout   string
	Stderr   string
	TimedOut bool
}

func (e *CodeInvalidError) Error() string {
	if e.TimedOut {
		return "code execution timed out"
	}
	return "code execution failed"
}

// GradingService coordinates task lookup, evaluation, attempt-limit policy
// and persistence of the resulting submission.
type GradingService interface {
	GradeCode(ctx context.Context, userID uint, payload dto.CodeGradeRequest) (dto.GradeResult, error)
	GradePoll(ctx context.Context, userID uint, payload dto.PollGradeRequest) (dto.GradeResult, error)
	GradeTextInput(ctx context.Context, userID uint, payload dto.TextInputGradeRequest) (dto.GradeResult, error)
}

type gradingService struct {
	tasks       repository.TaskRepository
	submissions repository.SubmissionRepository
	tx          repository.TxManager
	playgrounds playground.Factory
	events      events.Publisher
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(taskRepo repository.TaskRepository, submissionRepo repository.SubmissionRepository, tx repository.TxManager, playgrounds playground.Factory, publisher events.Publisher, validate *validator.Validate, logger zerolog.Logger) GradingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &gradingService{
		tasks:       taskRepo,
		submissions: submissionRepo,
		tx:          tx,
		playgrounds: playgrounds,
		events:      publisher,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) GradeCode(ctx context.Context, userID uint, payload dto.CodeGradeRequest) (dto.GradeResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResult{}, err
	}

	task, err := s.tasks.GetCodeTask(ctx, payload.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResult{}, ErrTaskNotFound
		}
		return dto.GradeResult{}, err
	}

	// NOTE: the limit check and the insert below are two storage round-trips;
	// concurrent grading calls for the same (user, task) pair can both pass
	// the check. The storage layer serializes the inserts, so the log stays
	// consistent, but one attempt beyond the limit can slip through.
	count, err := s.submissions.CountForCodeTask(ctx, userID, task.ID)
	if err != nil {
		return dto.GradeResult{}, err
	}
	if task.HasAttemptsLimit() && count >= int64(task.AttemptsLimit) {
		observability.GradingRejections().WithLabelValues(string(models.TaskKindCode)).Inc()
		return dto.GradeResult{}, ErrAttemptsLimitExceeded
	}

	sandbox, err := s.playgrounds.Create(ctx, task.ExecutionTimeout(), uuid.NewString())
	if err != nil {
		return dto.GradeResult{}, fmt.Errorf("acquire playground: %w", err)
	}
	defer func() {
		if err := sandbox.Close(); err != nil {
			s.logger.Error().Err(err).Uint("task_id", task.ID).Msg("failed to release playground")
		}
	}()

	program := assembleProgram(task.PreparedCode, payload.Source, task.HiddenTests)

	stdout, stderr, execErr := sandbox.ExecuteCode(ctx, program)
	if execErr != nil {
		var sandboxErr *playground.ExecError
		if errors.As(execErr, &sandboxErr) {
			observability.GradingExecutionFailures().Inc()
			return dto.GradeResult{}, &CodeInvalidError{
				Source:   payload.Source,
				Stdout:   sandboxErr.Stdout,
				Stderr:   sandboxErr.Stderr,
				TimedOut: sandboxErr.TimedOut,
			}
		}
		return dto.GradeResult{}, fmt.Errorf("execute code: %w", execErr)
	}
	if stderr != "" {
		s.logger.Debug().Uint("task_id", task.ID).Str("stderr", stderr).Msg("run produced stderr")
	}

	verdict := rules.EvaluateCode(stdout)

	submission := models.CodeSubmission{
		UserID:        userID,
		TaskID:        task.ID,
		Source:        payload.Source,
		IsCorrect:     verdict,
		AttemptNumber: int(count) + 1,
		CreatedAt:     s.now(),
	}

	err = s.tx.Do(ctx, func(txCtx context.Context) error {
		return s.submissions.SaveForCodeTask(txCtx, &submission)
	})
	if err != nil {
		return dto.GradeResult{}, fmt.Errorf("persist submission: %w", err)
	}

	result := dto.GradeResult{
		TaskKind:          string(models.TaskKindCode),
		IsCorrect:         verdict,
		AttemptNumber:     submission.AttemptNumber,
		AttemptsRemaining: remainingAttempts(task.AttemptsLimit, submission.AttemptNumber),
		FailedTestIndex:   rules.NoFailedTest,
	}
	if !verdict {
		result.FailedTestIndex, result.FailedTestOutput = rules.FirstFailure(stdout)
	}

	s.finishGrading(ctx, models.TaskKindCode, submission.UserID, submission.TaskID, verdict, submission.AttemptNumber)

	return result, nil
}

func (s *gradingService) GradePoll(ctx context.Context, userID uint, payload dto.PollGradeRequest) (dto.GradeResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResult{}, err
	}

	task, err := s.tasks.GetPollTask(ctx, payload.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResult{}, ErrTaskNotFound
		}
		return dto.GradeResult{}, err
	}

	count, err := s.submissions.CountForPollTask(ctx, userID, task.ID)
	if err != nil {
		return dto.GradeResult{}, err
	}

	verdict := rules.EvaluatePoll(task, payload.OptionID)

	submission := models.PollSubmission{
		UserID:        userID,
		TaskID:        task.ID,
		OptionID:      payload.OptionID,
		IsCorrect:     verdict,
		AttemptNumber: int(count) + 1,
		CreatedAt:     s.now(),
	}

	err = s.tx.Do(ctx, func(txCtx context.Context) error {
		return s.submissions.SaveForPollTask(txCtx, &submission)
	})
	if err != nil {
		return dto.GradeResult{}, fmt.Errorf("persist submission: %w", err)
	}

	s.finishGrading(ctx, models.TaskKindPoll, submission.UserID, submission.TaskID, verdict, submission.AttemptNumber)

	return dto.GradeResult{
		TaskKind:          string(models.TaskKindPoll),
		IsCorrect:         verdict,
		AttemptNumber:     submission.AttemptNumber,
		AttemptsRemaining: dto.UnlimitedAttempts,
		FailedTestIndex:   rules.NoFailedTest,
	}, nil
}

func (s *gradingService) GradeTextInput(ctx context.Context, userID uint, payload dto.TextInputGradeRequest) (dto.GradeResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResult{}, err
	}

	task, err := s.tasks.GetTextInputTask(ctx, payload.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResult{}, ErrTaskNotFound
		}
		return dto.GradeResult{}, err
	}

	count, err := s.submissions.CountForTextInputTask(ctx, userID, task.ID)
	if err != nil {
		return dto.GradeResult{}, err
	}
	if task.HasAttemptsLimit() && count >= int64(task.AttemptsLimit) {
		observability.GradingRejections().WithLabelValues(string(models.TaskKindTextInput)).Inc()
		return dto.GradeResult{}, ErrAttemptsLimitExceeded
	}

	verdict := rules.EvaluateTextInput(task, payload.Answer)

	submission := models.TextInputSubmission{
		UserID:        userID,
		TaskID:        task.ID,
		Answer:        payload.Answer,
		IsCorrect:     verdict,
		AttemptNumber: int(count) + 1,
		CreatedAt:     s.now(),
	}

	err = s.tx.Do(ctx, func(txCtx context.Context) error {
		return s.submissions.SaveForTextInputTask(txCtx, &submission)
	})
	if err != nil {
		return dto.GradeResult{}, fmt.Errorf("persist submission: %w", err)
	}

	s.finishGrading(ctx, models.TaskKindTextInput, submission.UserID, submission.TaskID, verdict, submission.AttemptNumber)

	return dto.GradeResult{
		TaskKind:          string(models.TaskKindTextInput),
		IsCorrect:         verdict,
		AttemptNumber:     submission.AttemptNumber,
		AttemptsRemaining: remainingAttempts(task.AttemptsLimit, submission.AttemptNumber),
		FailedTestIndex:   rules.NoFailedTest,
	}, nil
}

func (s *gradingService) finishGrading(ctx context.Context, kind models.TaskKind, userID, taskID uint, verdict bool, attempt int) {
	observability.Gradings().WithLabelValues(string(kind), verdictLabel(verdict)).Inc()

	s.events.SubmissionGraded(ctx, events.SubmissionGraded{
		UserID:        userID,
		TaskID:        taskID,
		TaskKind:      string(kind),
		IsCorrect:     verdict,
		AttemptNumber: attempt,
		GradedAt:      s.now(),
	})

	s.logger.Info().
		Str("task_kind", string(kind)).
		Uint("user_id", userID).
		Uint("task_id", taskID).
		Bool("is_correct", verdict).
		Int("attempt_number", attempt).
		Msg("submission graded")
}

// assembleProgram stitches the runnable unit: author-prepared scaffolding,
// the student's code, then the hidden test harness.
func assembleProgram(prepared, source, tests string) string {
	program := ""
	if prepared != "" {
		program += prepared + "\n\n"
	}
	program += source
	if tests != "" {
		program += "\n\n" + tests
	}
	return program
}

func remainingAttempts(limit, used int) int {
	if limit <= models.UnlimitedAttempts {
		return dto.UnlimitedAttempts
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func verdictLabel(correct bool) string {
	if correct {
		return "correct"
	}
	return "incorrect"
}
