package dto

import (
	"time"

	"github.com/lumen-edu/lumen-api/internal/models"
)

// CourseCreateRequest is the payload for creating a course.
type CourseCreateRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"max=10000"`
}

// CourseUpdateRequest is the payload for updating a course.
type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
}

// CourseResponse represents a course to API consumers.
type CourseResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AuthorID    uint      `json:"author_id"`
	CoverURL    string    `json:"cover_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCourseResponse builds a response DTO from a model.
func NewCourseResponse(course models.Course) CourseResponse {
	return CourseResponse{
		ID:          course.ID,
		Title:       course.Title,
		Description: course.Description,
		AuthorID:    course.AuthorID,
		CoverURL:    course.CoverURL,
		CreatedAt:   course.CreatedAt,
	}
}

// NewCourseResponseSlice maps a slice of courses to response DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}

// CourseListResponse wraps a paginated course listing.
type CourseListResponse struct {
	Courses []CourseResponse `json:"courses"`
	Total   int64            `json:"total"`
}
