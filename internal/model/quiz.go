package model

import (
	"time"

	"github.com/google/uuid"
)

// Question type constants
const (
	QuestionTypeSingleChoice = "single_choice"
	QuestionTypeMultiChoice  = "multi_choice"
	QuestionTypeTrueFalse    = "true_false"
)

// Quiz belongs to a subchapter.
type Quiz struct {
	Base
	SubchapterID uuid.UUID  `json:"subchapter_id" db:"subchapter_id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	TimeLimitSec int        `json:"time_limit_sec" db:"time_limit_sec"`
	Questions    []Question `json:"questions,omitempty" db:"-"`
}

// Question belongs to a quiz. Options and the correct answer set are
// stored as JSON.
type Question struct {
	Base
	QuizID   uuid.UUID `json:"quiz_id" db:"quiz_id"`
	Type     string    `json:"type" db:"type"`
	Prompt   string    `json:"prompt" db:"prompt"`
	Options  JSONMap   `json:"options" db:"options"`
	Answers  JSONMap   `json:"-" db:"answers"`
	Position int       `json:"position" db:"position"`
	Points   int       `json:"points" db:"points"`
}

// QuizAttempt records one user's run through a quiz.
type QuizAttempt struct {
	Base
	QuizID      uuid.UUID  `json:"quiz_id" db:"quiz_id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Score       int        `json:"score" db:"score"`
	MaxScore    int        `json:"max_score" db:"max_score"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Responses   JSONMap    `json:"responses" db:"responses"`
}

// CreateQuizRequest creates a quiz with its nested questions in one
// transaction.
type CreateQuizRequest struct {
	SubchapterID string                  `json:"subchapter_id" binding:"required,uuid"`
	Title        string                  `json:"title" binding:"required,notblank"`
	Description  string                  `json:"description"`
	TimeLimitSec int                     `json:"time_limit_sec" binding:"omitempty,min=30"`
	Questions    []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// CreateQuestionRequest represents question creation parameters
type CreateQuestionRequest struct {
	Type     string  `json:"type" binding:"required,oneof=single_choice multi_choice true_false"`
	Prompt   string  `json:"prompt" binding:"required"`
	Options  JSONMap `json:"options" binding:"required"`
	Answers  JSONMap `json:"answers" binding:"required"`
	Position int     `json:"position"`
	Points   int     `json:"points" binding:"omitempty,min=1"`
}

// AddQuestionsRequest appends questions to an existing quiz.
type AddQuestionsRequest struct {
	Questions []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// SubmitAttemptRequest submits a completed quiz attempt. QuizID comes
// from the URL path when the handler routes by quiz.
type SubmitAttemptRequest struct {
	QuizID    string  `json:"quiz_id" binding:"omitempty,uuid"`
	Responses JSONMap `json:"responses" binding:"required"`
}
