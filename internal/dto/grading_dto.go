package dto

// UnlimitedAttempts is the remaining-attempts sentinel for tasks without a
// configured limit.
const UnlimitedAttempts = -1

// CodeGradeRequest represents a code submission for grading.
type CodeGradeRequest struct {
	TaskID uint   `json:"task_id" validate:"required,gt=0"`
	Source string `json:"source" validate:"required,min=1"`
}

// PollGradeRequest represents a selected poll option for grading.
type PollGradeRequest struct {
	TaskID   uint `json:"task_id" validate:"required,gt=0"`
	OptionID uint `json:"option_id" validate:"required,gt=0"`
}

// TextInputGradeRequest represents a free-text answer for grading.
type TextInputGradeRequest struct {
	TaskID uint   `json:"task_id" validate:"required,gt=0"`
	Answer string `json:"answer" validate:"required"`
}

// GradeResult is the structured verdict returned to presentation layers.
type GradeResult struct {
	TaskKind          string `json:"task_kind"`
	IsCorrect         bool   `json:"is_correct"`
	AttemptNumber     int    `json:"attempt_number"`
	AttemptsRemaining int    `json:"attempts_remaining"`
	FailedTestIndex   int    `json:"failed_test_index,omitempty"`
	FailedTestOutput  string `json:"failed_test_output,omitempty"`
}
