package models

import (
	"time"

	"gorm.io/datatypes"
)

// TaskKind discriminates the task variants a course may contain.
type TaskKind string

// Task kinds supported by the platform.
const (
	TaskKindCode      TaskKind = "code"
	TaskKindPoll      TaskKind = "poll"
	TaskKindTextInput TaskKind = "text_input"
	TaskKindTheory    TaskKind = "theory"
)

// Task difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// UnlimitedAttempts marks a task without a configured attempts limit.
const UnlimitedAttempts = 0

// CodeTask is a programming exercise graded inside the playground sandbox.
// The student's source is concatenated with PreparedCode and HiddenTests
// before execution.
type CodeTask struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CourseID      uint      `gorm:"not null;index" json:"course_id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Prompt        string    `gorm:"type:text;not null" json:"prompt"`
	Difficulty    string    `gorm:"size:32;not null" json:"difficulty"`
	PreparedCode  string    `gorm:"type:text" json:"prepared_code"`
	HiddenTests   string    `gorm:"type:text;not null" json:"-"`
	TimeoutSec    int       `gorm:"not null;default:5" json:"timeout_sec"`
	AttemptsLimit int       `gorm:"not null;default:0" json:"attempts_limit"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ExecutionTimeout returns the sandbox deadline configured for the task.
func (t CodeTask) ExecutionTimeout() time.Duration {
	if t.TimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(t.TimeoutSec) * time.Second
}

// HasAttemptsLimit reports whether grading attempts are bounded.
func (t CodeTask) HasAttemptsLimit() bool {
	return t.AttemptsLimit > UnlimitedAttempts
}

// PollTask is a single-choice question with a fixed option set.
type PollTask struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	CourseID   uint         `gorm:"not null;index" json:"course_id"`
	Title      string       `gorm:"size:255;not null" json:"title"`
	Prompt     string       `gorm:"type:text;not null" json:"prompt"`
	Difficulty string       `gorm:"size:32;not null" json:"difficulty"`
	Options    []PollOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// PollOption is one selectable answer of a poll task.
type PollOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PollTaskID uint   `gorm:"not null;index" json:"poll_task_id"`
	Label      string `gorm:"size:512;not null" json:"label"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"-"`
	Position   int    `gorm:"not null;default:0" json:"position"`
}

// Option looks up an option by id within the task's option set.
func (t PollTask) Option(optionID uint) (PollOption, bool) {
	for _, option := range t.Options {
		if option.ID == optionID {
			return option, true
		}
	}
	return PollOption{}, false
}

// TextInputTask is a free-text question graded by verbatim answer matching.
type TextInputTask struct {
	ID             uint                        `gorm:"primaryKey" json:"id"`
	CourseID       uint                        `gorm:"not null;index" json:"course_id"`
	Title          string                      `gorm:"size:255;not null" json:"title"`
	Prompt         string                      `gorm:"type:text;not null" json:"prompt"`
	Difficulty     string                      `gorm:"size:32;not null" json:"difficulty"`
	CorrectAnswers datatypes.JSONSlice[string] `gorm:"not null" json:"-"`
	AttemptsLimit  int                         `gorm:"not null;default:0" json:"attempts_limit"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// HasAttemptsLimit reports whether grading attempts are bounded.
func (t TextInputTask) HasAttemptsLimit() bool {
	return t.AttemptsLimit > UnlimitedAttempts
}

// TheoryTask carries reading material only and is never graded.
type TheoryTask struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Difficulty string    `gorm:"size:32;not null" json:"difficulty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
