package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edforge/lms-api/internal/model"
)

// All repository interfaces in one file
type (
	// UserRepository handles user operations
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error)
	}

	// ContentRepository handles the grade→subject→chapter→subchapter hierarchy
	ContentRepository interface {
		CreateGrade(ctx context.Context, grade *model.Grade) error
		GetGrade(ctx context.Context, id uuid.UUID) (*model.Grade, error)
		ListGrades(ctx context.Context) ([]*model.Grade, error)
		UpdateGrade(ctx context.Context, grade *model.Grade) error
		DeleteGrade(ctx context.Context, id uuid.UUID) error

		CreateSubject(ctx context.Context, subject *model.Subject) error
		GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error)
		ListSubjects(ctx context.Context, gradeID uuid.UUID) ([]*model.Subject, error)
		UpdateSubject(ctx context.Context, subject *model.Subject) error
		DeleteSubject(ctx context.Context, id uuid.UUID) error

		CreateChapter(ctx context.Context, chapter *model.Chapter, subchapters []*model.Subchapter) error
		GetChapter(ctx context.Context, id uuid.UUID) (*model.Chapter, error)
		ListChapters(ctx context.Context, subjectID uuid.UUID) ([]*model.Chapter, error)
		UpdateChapter(ctx context.Context, chapter *model.Chapter) error
		DeleteChapter(ctx context.Context, id uuid.UUID) error

		CreateSubchapter(ctx context.Context, subchapter *model.Subchapter) error
		GetSubchapter(ctx context.Context, id uuid.UUID) (*model.Subchapter, error)
		ListSubchapters(ctx context.Context, chapterID uuid.UUID) ([]*model.Subchapter, error)
		UpdateSubchapter(ctx context.Context, subchapter *model.Subchapter) error
		DeleteSubchapter(ctx context.Context, id uuid.UUID) error
	}

	// QuizRepository handles quizzes, nested questions and attempts
	QuizRepository interface {
		CreateQuiz(ctx context.Context, quiz *model.Quiz) error
		AddQuestions(ctx context.Context, questions []model.Question) error
		GetQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
		ListQuizzes(ctx context.Context, subchapterID uuid.UUID) ([]*model.Quiz, error)
		DeleteQuiz(ctx context.Context, id uuid.UUID) error
		CreateAttempt(ctx context.Context, attempt *model.QuizAttempt) error
		ListAttempts(ctx context.Context, quizID, userID uuid.UUID) ([]*model.QuizAttempt, error)
	}

	// TokenRepository handles one-time reset/verification tokens
	TokenRepository interface {
		Create(ctx context.Context, token *model.ResetToken) error
		GetByToken(ctx context.Context, token string) (*model.ResetToken, error)
		MarkUsed(ctx context.Context, id uuid.UUID) error
		DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	}

	// OutboxRepository handles transactional event records
	OutboxRepository interface {
		CreateEvent(ctx context.Context, eventType string, payload []byte) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	}

	// UploadRepository records stored files
	UploadRepository interface {
		Create(ctx context.Context, upload *model.Upload) error
		Get(ctx context.Context, id uuid.UUID) (*model.Upload, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Upload, error)
	}
)
