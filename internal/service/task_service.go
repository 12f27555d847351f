package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/dto"
	"github.com/lumen-edu/lumen-api/internal/repository"
)

// TaskService exposes task retrieval for presentation layers. Responses never
// leak hidden tests, accepted answers or option correctness.
type TaskService interface {
	ListForCourse(ctx context.Context, courseID uint) ([]dto.TaskSummary, error)
	GetCodeTask(ctx context.Context, id uint) (dto.CodeTaskResponse, error)
	GetPollTask(ctx context.Context, id uint) (dto.PollTaskResponse, error)
	GetTextInputTask(ctx context.Context, id uint) (dto.TextInputTaskResponse, error)
	GetTheoryTask(ctx context.Context, id uint) (dto.TheoryTaskResponse, error)
}

type taskService struct {
	tasks   repository.TaskRepository
	courses repository.CourseRepository
	logger  zerolog.Logger
}

// NewTaskService constructs a task service.
func NewTaskService(taskRepo repository.TaskRepository, courseRepo repository.CourseRepository, logger zerolog.Logger) TaskService {
	return &taskService{
		tasks:   taskRepo,
		courses: courseRepo,
		logger:  logger.With().Str("component", "task_service").Logger(),
	}
}

func (s *taskService) ListForCourse(ctx context.Context, courseID uint) ([]dto.TaskSummary, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	tasks, err := s.tasks.ListForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewTaskSummaries(tasks), nil
}

func (s *taskService) GetCodeTask(ctx context.Context, id uint) (dto.CodeTaskResponse, error) {
	task, err := s.tasks.GetCodeTask(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CodeTaskResponse{}, ErrTaskNotFound
		}
		return dto.CodeTaskResponse{}, err
	}
	return dto.NewCodeTaskResponse(task), nil
}

func (s *taskService) GetPollTask(ctx context.Context, id uint) (dto.PollTaskResponse, error) {
	task, err := s.tasks.GetPollTask(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PollTaskResponse{}, ErrTaskNotFound
		}
		return dto.PollTaskResponse{}, err
	}
	return dto.NewPollTaskResponse(task), nil
}

func (s *taskService) GetTextInputTask(ctx context.Context, id uint) (dto.TextInputTaskResponse, error) {
	task, err := s.tasks.GetTextInputTask(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TextInputTaskResponse{}, ErrTaskNotFound
		}
		return dto.TextInputTaskResponse{}, err
	}
	return dto.NewTextInputTaskResponse(task), nil
}

func (s *taskService) GetTheoryTask(ctx context.Context, id uint) (dto.TheoryTaskResponse, error) {
	task, err := s.tasks.GetTheoryTask(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TheoryTaskResponse{}, ErrTaskNotFound
		}
		return dto.TheoryTaskResponse{}, err
	}
	return dto.NewTheoryTaskResponse(task), nil
}
