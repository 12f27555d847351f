package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/dto"
	"github.com/lumen-edu/lumen-api/internal/repository"
)

// HistoryService reads a user's slice of the append-only grading log.
type HistoryService interface {
	ForCodeTask(ctx context.Context, userID, taskID uint) (dto.SubmissionHistoryResponse, error)
	ForPollTask(ctx context.Context, userID, taskID uint) (dto.SubmissionHistoryResponse, error)
	ForTextInputTask(ctx context.Context, userID, taskID uint) (dto.SubmissionHistoryResponse, error)
}

type historyService struct {
	tasks       repository.TaskRepository
	submissions repository.SubmissionRepository
	logger      zerolog.Logger
}

// NewHistoryService constructs a submission history service.
func NewHistoryService(taskRepo repository.TaskRepository, submissionRepo repository.SubmissionRepository, logger zerolog.Logger) HistoryService {
	return &historyService{
		tasks:       taskRepo,
		submissions: submissionRepo,
		logger:      logger.With().Str("component", "history_service").Logger(),
	}
}

func (s *historyService) ForCodeTask(ctx context.Context, userID, taskID uint) (dto.SubmissionHistoryResponse, error) {
	if _, err := s.tasks.GetCodeTask(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionHistoryResponse{}, ErrTaskNotFound
		}
		return dto.SubmissionHistoryResponse{}, err
	}

	submissions, err := s.submissions.ListCodeSubmissions(ctx, userID, taskID)
	if err != nil {
		return dto.SubmissionHistoryResponse{}, err
	}
	return dto.NewCodeSubmissionHistory(taskID, submissions), nil
}

func (s *historyService) ForPollTask(ctx context.Context, userID, taskID uint) (dto.SubmissionHistoryResponse, error) {
	if _, err := s.tasks.GetPollTask(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionHistoryResponse{}, ErrTaskNotFound
		}
		return dto.SubmissionHistoryResponse{}, err
	}

	submissions, err := s.submissions.ListPollSubmissions(ctx, userID, taskID)
	if err != nil {
		return dto.SubmissionHistoryResponse{}, err
	}
	return dto.NewPollSubmissionHistory(taskID, submissions), nil
}

func (s *historyService) ForTextInputTask(ctx context.Context, userID, taskID uint) (dto.SubmissionHistoryResponse, error) {
	if _, err := s.tasks.GetTextInputTask(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionHistoryResponse{}, ErrTaskNotFound
		}
		return dto.SubmissionHistoryResponse{}, err
	}

	submissions, err := s.submissions.ListTextInputSubmissions(ctx, userID, taskID)
	if err != nil {
		return dto.SubmissionHistoryResponse{}, err
	}
	return dto.NewTextInputSubmissionHistory(taskID, submissions), nil
}
