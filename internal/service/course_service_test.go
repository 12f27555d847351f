package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/dto"
	"github.com/lumen-edu/lumen-api/internal/models"
)

type stubCourseRepo struct {
	course  models.Course
	getErr  error
	listed  []models.Course
	total   int64
	listErr error

	created []models.Course
	updated []models.Course
	deleted []uint
}

func (s *stubCourseRepo) List(context.Context, int, int) ([]models.Course, int64, error) {
	return s.listed, s.total, s.listErr
}

func (s *stubCourseRepo) GetByID(context.Context, uint) (models.Course, error) {
	return s.course, s.getErr
}

func (s *stubCourseRepo) Create(_ context.Context, course *models.Course) error {
	course.ID = 100
	s.created = append(s.created, *course)
	return nil
}

func (s *stubCourseRepo) Update(_ context.Context, course *models.Course) error {
	s.updated = append(s.updated, *course)
	return nil
}

func (s *stubCourseRepo) Delete(_ context.Context, id uint) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func newCourseFixture(repo *stubCourseRepo) CourseService {
	return NewCourseService(repo, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func TestCourseCreateRequiresAuthorRole(t *testing.T) {
	repo := &stubCourseRepo{}
	svc := newCourseFixture(repo)

	payload := dto.CourseCreateRequest{Title: "Go Basics"}

	_, err := svc.Create(context.Background(), models.User{ID: 1, Role: models.RoleStudent}, payload)
	require.ErrorIs(t, err, ErrForbidden)
	require.Empty(t, repo.created)

	created, err := svc.Create(context.Background(), models.User{ID: 1, Role: models.RoleAuthor}, payload)
	require.NoError(t, err)
	require.Equal(t, "Go Basics", created.Title)
	require.Equal(t, uint(1), created.AuthorID)
	require.Len(t, repo.created, 1)
}

func TestCourseUpdateOwnershipRules(t *testing.T) {
	repo := &stubCourseRepo{course: models.Course{ID: 9, Title: "Old", AuthorID: 1}}
	svc := newCourseFixture(repo)

	title := "New"
	payload := dto.CourseUpdateRequest{Title: &title}

	_, err := svc.Update(context.Background(), models.User{ID: 2, Role: models.RoleAuthor}, 9, payload)
	require.ErrorIs(t, err, ErrForbidden)

	// Owner may update.
	updated, err := svc.Update(context.Background(), models.User{ID: 1, Role: models.RoleAuthor}, 9, payload)
	require.NoError(t, err)
	require.Equal(t, "New", updated.Title)

	// Admin may update any course.
	_, err = svc.Update(context.Background(), models.User{ID: 3, Role: models.RoleAdmin}, 9, payload)
	require.NoError(t, err)
	require.Len(t, repo.updated, 2)
}

func TestCourseGetNotFound(t *testing.T) {
	repo := &stubCourseRepo{getErr: gorm.ErrRecordNotFound}
	svc := newCourseFixture(repo)

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourseDeleteForbiddenForForeignAuthor(t *testing.T) {
	repo := &stubCourseRepo{course: models.Course{ID: 9, AuthorID: 1}}
	svc := newCourseFixture(repo)

	err := svc.Delete(context.Background(), models.User{ID: 2, Role: models.RoleAuthor}, 9)
	require.ErrorIs(t, err, ErrForbidden)
	require.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), models.User{ID: 1, Role: models.RoleAuthor}, 9))
	require.Equal(t, []uint{9}, repo.deleted)
}

func TestCourseListClampsPagination(t *testing.T) {
	repo := &stubCourseRepo{listed: []models.Course{{ID: 1, Title: "A"}}, total: 1}
	svc := newCourseFixture(repo)

	listing, err := svc.List(context.Background(), -5, 1000)
	require.NoError(t, err)
	require.Equal(t, int64(1), listing.Total)
	require.Len(t, listing.Courses, 1)
}
