package dto

import (
	"time"

	"github.com/lumen-edu/lumen-api/internal/models"
)

// SubmissionHistoryEntry is one record of a user's grading log for a task.
type SubmissionHistoryEntry struct {
	AttemptNumber int       `json:"attempt_number"`
	IsCorrect     bool      `json:"is_correct"`
	Payload       string    `json:"payload,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmissionHistoryResponse lists a user's attempts for one task.
type SubmissionHistoryResponse struct {
	TaskID   uint                     `json:"task_id"`
	TaskKind string                   `json:"task_kind"`
	Attempts []SubmissionHistoryEntry `json:"attempts"`
}

// NewCodeSubmissionHistory maps code submissions into history entries.
func NewCodeSubmissionHistory(taskID uint, submissions []models.CodeSubmission) SubmissionHistoryResponse {
	entries := make([]SubmissionHistoryEntry, 0, len(submissions))
	for _, submission := range submissions {
		entries = append(entries, SubmissionHistoryEntry{
			AttemptNumber: submission.AttemptNumber,
			IsCorrect:     submission.IsCorrect,
			Payload:       submission.Source,
			CreatedAt:     submission.CreatedAt,
		})
	}
	return SubmissionHistoryResponse{TaskID: taskID, TaskKind: string(models.TaskKindCode), Attempts: entries}
}

// NewPollSubmissionHistory maps poll submissions into history entries.
func NewPollSubmissionHistory(taskID uint, submissions []models.PollSubmission) SubmissionHistoryResponse {
	entries := make([]SubmissionHistoryEntry, 0, len(submissions))
	for _, submission := range submissions {
		entries = append(entries, SubmissionHistoryEntry{
			AttemptNumber: submission.AttemptNumber,
			IsCorrect:     submission.IsCorrect,
			CreatedAt:     submission.CreatedAt,
		})
	}
	return SubmissionHistoryResponse{TaskID: taskID, TaskKind: string(models.TaskKindPoll), Attempts: entries}
}

// NewTextInputSubmissionHistory maps text-input submissions into history entries.
func NewTextInputSubmissionHistory(taskID uint, submissions []models.TextInputSubmission) SubmissionHistoryResponse {
	entries := make([]SubmissionHistoryEntry, 0, len(submissions))
	for _, submission := range submissions {
		entries = append(entries, SubmissionHistoryEntry{
			AttemptNumber: submission.AttemptNumber,
			IsCorrect:     submission.IsCorrect,
			Payload:       submission.Answer,
			CreatedAt:     submission.CreatedAt,
		})
	}
	return SubmissionHistoryResponse{TaskID: taskID, TaskKind: string(models.TaskKindTextInput), Attempts: entries}
}
