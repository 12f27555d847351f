package dto

import (
	"github.com/lumen-edu/lumen-api/internal/models"
	"github.com/lumen-edu/lumen-api/internal/repository"
)

// TaskSummary is a single entry of a course task listing. Hidden tests and
// option correctness never leave the server.
type TaskSummary struct {
	ID         uint   `json:"id"`
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
}

// CodeTaskResponse presents a code task to students.
type CodeTaskResponse struct {
	ID            uint   `json:"id"`
	CourseID      uint   `json:"course_id"`
	Title         string `json:"title"`
	Prompt        string `json:"prompt"`
	Difficulty    string `json:"difficulty"`
	PreparedCode  string `json:"prepared_code,omitempty"`
	TimeoutSec    int    `json:"timeout_sec"`
	AttemptsLimit int    `json:"attempts_limit"`
}

// PollOptionResponse presents one selectable option without its correctness flag.
type PollOptionResponse struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
}

// PollTaskResponse presents a poll task to students.
type PollTaskResponse struct {
	ID         uint                 `json:"id"`
	CourseID   uint                 `json:"course_id"`
	Title      string               `json:"title"`
	Prompt     string               `json:"prompt"`
	Difficulty string               `json:"difficulty"`
	Options    []PollOptionResponse `json:"options"`
}

// TextInputTaskResponse presents a text-input task to students.
type TextInputTaskResponse struct {
	ID            uint   `json:"id"`
	CourseID      uint   `json:"course_id"`
	Title         string `json:"title"`
	Prompt        string `json:"prompt"`
	Difficulty    string `json:"difficulty"`
	AttemptsLimit int    `json:"attempts_limit"`
}

// TheoryTaskResponse presents reading material to students.
type TheoryTaskResponse struct {
	ID         uint   `json:"id"`
	CourseID   uint   `json:"course_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Difficulty string `json:"difficulty"`
}

// NewCodeTaskResponse builds a response DTO from a model.
func NewCodeTaskResponse(task models.CodeTask) CodeTaskResponse {
	return CodeTaskResponse{
		ID:            task.ID,
		CourseID:      task.CourseID,
		Title:         task.Title,
		Prompt:        task.Prompt,
		Difficulty:    task.Difficulty,
		PreparedCode:  task.PreparedCode,
		TimeoutSec:    task.TimeoutSec,
		AttemptsLimit: task.AttemptsLimit,
	}
}

// NewPollTaskResponse builds a response DTO from a model.
func NewPollTaskResponse(task models.PollTask) PollTaskResponse {
	options := make([]PollOptionResponse, 0, len(task.Options))
	for _, option := range task.Options {
		options = append(options, PollOptionResponse{ID: option.ID, Label: option.Label})
	}
	return PollTaskResponse{
		ID:         task.ID,
		CourseID:   task.CourseID,
		Title:      task.Title,
		Prompt:     task.Prompt,
		Difficulty: task.Difficulty,
		Options:    options,
	}
}

// NewTextInputTaskResponse builds a response DTO from a model.
func NewTextInputTaskResponse(task models.TextInputTask) TextInputTaskResponse {
	return TextInputTaskResponse{
		ID:            task.ID,
		CourseID:      task.CourseID,
		Title:         task.Title,
		Prompt:        task.Prompt,
		Difficulty:    task.Difficulty,
		AttemptsLimit: task.AttemptsLimit,
	}
}

// NewTheoryTaskResponse builds a response DTO from a model.
func NewTheoryTaskResponse(task models.TheoryTask) TheoryTaskResponse {
	return TheoryTaskResponse{
		ID:         task.ID,
		CourseID:   task.CourseID,
		Title:      task.Title,
		Content:    task.Content,
		Difficulty: task.Difficulty,
	}
}

// NewTaskSummaries flattens every task variant of a course into one listing.
func NewTaskSummaries(tasks repository.CourseTasks) []TaskSummary {
	summaries := make([]TaskSummary, 0,
		len(tasks.Code)+len(tasks.Polls)+len(tasks.TextInput)+len(tasks.Theory))

	for _, task := range tasks.Theory {
		summaries = append(summaries, TaskSummary{ID: task.ID, Kind: string(models.TaskKindTheory), Title: task.Title, Difficulty: task.Difficulty})
	}
	for _, task := range tasks.Polls {
		summaries = append(summaries, TaskSummary{ID: task.ID, Kind: string(models.TaskKindPoll), Title: task.Title, Difficulty: task.Difficulty})
	}
	for _, task := range tasks.TextInput {
		summaries = append(summaries, TaskSummary{ID: task.ID, Kind: string(models.TaskKindTextInput), Title: task.Title, Difficulty: task.Difficulty})
	}
	for _, task := range tasks.Code {
		summaries = append(summaries, TaskSummary{ID: task.ID, Kind: string(models.TaskKindCode), Title: task.Title, Difficulty: task.Difficulty})
	}

	return summaries
}
