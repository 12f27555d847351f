package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/dto"
	"github.com/lumen-edu/lumen-api/internal/models"
	"github.com/lumen-edu/lumen-api/internal/repository"
)

// ErrCourseNotFound indicates the course cannot be located.
var ErrCourseNotFound = errors.New("course not found")

// ErrForbidden indicates the actor is not allowed to perform the action.
var ErrForbidden = errors.New("forbidden")

// CourseService exposes course catalog operations.
type CourseService interface {
	List(ctx context.Context, offset, limit int) (dto.CourseListResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, actor models.User, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, actor models.User, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, actor models.User, id uint) error
}

type courseService struct {
	courses   repository.CourseRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCourseService constructs a course service.
func NewCourseService(courseRepo repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courseRepo,
		validator: validate,
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context, offset, limit int) (dto.CourseListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	courses, total, err := s.courses.List(ctx, offset, limit)
	if err != nil {
		return dto.CourseListResponse{}, err
	}

	return dto.CourseListResponse{
		Courses: dto.NewCourseResponseSlice(courses),
		Total:   total,
	}, nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, actor models.User, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}
	if !actor.IsAuthor() {
		return dto.CourseResponse{}, ErrForbidden
	}

	course := models.Course{
		Title:       payload.Title,
		Description: payload.Description,
		AuthorID:    actor.ID,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("author_id", actor.ID).Msg("course created")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, actor models.User, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	if !course.IsOwnedBy(actor.ID) && actor.Role != models.RoleAdmin {
		return dto.CourseResponse{}, ErrForbidden
	}

	if payload.Title != nil {
		course.Title = *payload.Title
	}
	if payload.Description != nil {
		course.Description = *payload.Description
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, actor models.User, id uint) error {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	if !course.IsOwnedBy(actor.ID) && actor.Role != models.RoleAdmin {
		return ErrForbidden
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("course_id", id).Uint("actor_id", actor.ID).Msg("course deleted")
	return nil
}
