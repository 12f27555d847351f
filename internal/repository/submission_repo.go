package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/models"
)

// SubmissionRepository persists the append-only grading log. Save methods are
// modality-specific; counts feed the attempt-limit policy.
type SubmissionRepository interface {
	SaveForCodeTask(ctx context.Context, submission *models.CodeSubmission) error
	SaveForPollTask(ctx context.Context, submission *models.PollSubmission) error
	SaveForTextInputTask(ctx context.Context, submission *models.TextInputSubmission) error
	CountForCodeTask(ctx context.Context, userID, taskID uint) (int64, error)
	CountForPollTask(ctx context.Context, userID, taskID uint) (int64, error)
	CountForTextInputTask(ctx context.Context, userID, taskID uint) (int64, error)
	ListCodeSubmissions(ctx context.Context, userID, taskID uint) ([]models.CodeSubmission, error)
	ListPollSubmissions(ctx context.Context, userID, taskID uint) ([]models.PollSubmission, error)
	ListTextInputSubmissions(ctx context.Context, userID, taskID uint) ([]models.TextInputSubmission, error)
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) SaveForCodeTask(ctx context.Context, submission *models.CodeSubmission) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) SaveForPollTask(ctx context.Context, submission *models.PollSubmission) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) SaveForTextInputTask(ctx context.Context, submission *models.TextInputSubmission) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) CountForCodeTask(ctx context.Context, userID, taskID uint) (int64, error) {
	return r.count(ctx, &models.CodeSubmission{}, userID, taskID)
}

func (r *submissionRepository) CountForPollTask(ctx context.Context, userID, taskID uint) (int64, error) {
	return r.count(ctx, &models.PollSubmission{}, userID, taskID)
}

func (r *submissionRepository) CountForTextInputTask(ctx context.Context, userID, taskID uint) (int64, error) {
	return r.count(ctx, &models.TextInputSubmission{}, userID, taskID)
}

func (r *submissionRepository) count(ctx context.Context, model interface{}, userID, taskID uint) (int64, error) {
	var total int64
	err := dbFromContext(ctx, r.db).WithContext(ctx).Model(model).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *submissionRepository) ListCodeSubmissions(ctx context.Context, userID, taskID uint) ([]models.CodeSubmission, error) {
	var submissions []models.CodeSubmission
	if err := r.listQuery(ctx, userID, taskID).Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) ListPollSubmissions(ctx context.Context, userID, taskID uint) ([]models.PollSubmission, error) {
	var submissions []models.PollSubmission
	if err := r.listQuery(ctx, userID, taskID).Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) ListTextInputSubmissions(ctx context.Context, userID, taskID uint) ([]models.TextInputSubmission, error) {
	var submissions []models.TextInputSubmission
	if err := r.listQuery(ctx, userID, taskID).Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) listQuery(ctx context.Context, userID, taskID uint) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		Order("attempt_number ASC")
}
