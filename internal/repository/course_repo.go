package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/models"
)

// CourseRepository exposes persistence operations for courses.
type CourseRepository interface {
	List(ctx context.Context, offset, limit int) ([]models.Course, int64, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

type courseRepository struct {
	db *gorm.DB
}

func (r *courseRepository) List(ctx context.Context, offset, limit int) ([]models.Course, int64, error) {
	db := dbFromContext(ctx, r.db).WithContext(ctx).Model(&models.Course{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if offset > 0 {
		db = db.Offset(offset)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}

	var courses []models.Course
	if err := db.Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Delete(&models.Course{}, id).Error
}
