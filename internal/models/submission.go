package models

import "time"

// CodeSubmission records one graded attempt at a code task.
// Submissions form an append-only log and are never updated after creation.
type CodeSubmission struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index:idx_code_subs_user_task" json:"user_id"`
	TaskID        uint      `gorm:"not null;index:idx_code_subs_user_task" json:"task_id"`
	Source        string    `gorm:"type:text;not null" json:"source"`
	IsCorrect     bool      `gorm:"not null" json:"is_correct"`
	AttemptNumber int       `gorm:"not null" json:"attempt_number"`
	CreatedAt     time.Time `json:"created_at"`
}

// PollSubmission records one graded attempt at a poll task.
type PollSubmission struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index:idx_poll_subs_user_task" json:"user_id"`
	TaskID        uint      `gorm:"not null;index:idx_poll_subs_user_task" json:"task_id"`
	OptionID      uint      `gorm:"not null" json:"option_id"`
	IsCorrect     bool      `gorm:"not null" json:"is_correct"`
	AttemptNumber int       `gorm:"not null" json:"attempt_number"`
	CreatedAt     time.Time `json:"created_at"`
}

// TextInputSubmission records one graded attempt at a text-input task.
type TextInputSubmission struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index:idx_text_subs_user_task" json:"user_id"`
	TaskID        uint      `gorm:"not null;index:idx_text_subs_user_task" json:"task_id"`
	Answer        string    `gorm:"type:text;not null" json:"answer"`
	IsCorrect     bool      `gorm:"not null" json:"is_correct"`
	AttemptNumber int       `gorm:"not null" json:"attempt_number"`
	CreatedAt     time.Time `json:"created_at"`
}
