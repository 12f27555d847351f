package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/models"
)

// TaskRepository exposes read access to the task variants of a course.
type TaskRepository interface {
	GetCodeTask(ctx context.Context, id uint) (models.CodeTask, error)
	GetPollTask(ctx context.Context, id uint) (models.PollTask, error)
	GetTextInputTask(ctx context.Context, id uint) (models.TextInputTask, error)
	GetTheoryTask(ctx context.Context, id uint) (models.TheoryTask, error)
	ListForCourse(ctx context.Context, courseID uint) (CourseTasks, error)
}

// CourseTasks groups every task variant belonging to one course.
type CourseTasks struct {
	Code      []models.CodeTask
	Polls     []models.PollTask
	TextInput []models.TextInputTask
	Theory    []models.TheoryTask
}

// NewTaskRepository constructs the task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

type taskRepository struct {
	db *gorm.DB
}

func (r *taskRepository) GetCodeTask(ctx context.Context, id uint) (models.CodeTask, error) {
	var task models.CodeTask
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&task, id).Error; err != nil {
		return models.CodeTask{}, err
	}
	return task, nil
}

func (r *taskRepository) GetPollTask(ctx context.Context, id uint) (models.PollTask, error) {
	var task models.PollTask
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&task, id).Error
	if err != nil {
		return models.PollTask{}, err
	}
	return task, nil
}

func (r *taskRepository) GetTextInputTask(ctx context.Context, id uint) (models.TextInputTask, error) {
	var task models.TextInputTask
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&task, id).Error; err != nil {
		return models.TextInputTask{}, err
	}
	return task, nil
}

func (r *taskRepository) GetTheoryTask(ctx context.Context, id uint) (models.TheoryTask, error) {
	var task models.TheoryTask
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&task, id).Error; err != nil {
		return models.TheoryTask{}, err
	}
	return task, nil
}

func (r *taskRepository) ListForCourse(ctx context.Context, courseID uint) (CourseTasks, error) {
	db := dbFromContext(ctx, r.db).WithContext(ctx)

	var tasks CourseTasks
	if err := db.Where("course_id = ?", courseID).Order("id ASC").Find(&tasks.Code).Error; err != nil {
		return CourseTasks{}, err
	}
	err := db.Where("course_id = ?", courseID).Order("id ASC").
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Find(&tasks.Polls).Error
	if err != nil {
		return CourseTasks{}, err
	}
	if err := db.Where("course_id = ?", courseID).Order("id ASC").Find(&tasks.TextInput).Error; err != nil {
		return CourseTasks{}, err
	}
	if err := db.Where("course_id = ?", courseID).Order("id ASC").Find(&tasks.Theory).Error; err != nil {
		return CourseTasks{}, err
	}

	return tasks, nil
}
