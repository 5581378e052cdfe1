package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edforge/lms-api/internal/model"
	"github.com/edforge/lms-api/internal/repository"
)

type quizRepository struct {
	BaseRepository
}

func NewQuizRepository(base BaseRepository) repository.QuizRepository {
	return &quizRepository{base}
}

// CreateQuiz inserts the quiz row, then its questions through the batch
// executor so large question sets are chunked. Everything runs under the
// retry engine; a constraint violation in any question aborts without
// leaving a partial quiz.
func (r *quizRepository) CreateQuiz(ctx context.Context, quiz *model.Quiz) error {
	quizQuery := `
		INSERT INTO quizzes (id, subchapter_id, title, description, time_limit_sec, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	questionQuery := `
		INSERT INTO questions (id, quiz_id, type, prompt, options, answers, position, points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now()
	quiz.ID = uuid.New()
	quiz.CreatedAt = now
	quiz.UpdatedAt = now

	return r.WithRetry(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, quizQuery,
			quiz.ID, quiz.SubchapterID, quiz.Title, quiz.Description,
			quiz.TimeLimitSec, quiz.CreatedAt, quiz.UpdatedAt,
		); err != nil {
			return err
		}

		for i := range quiz.Questions {
			q := &quiz.Questions[i]
			q.ID = uuid.New()
			q.QuizID = quiz.ID
			q.CreatedAt = now
			q.UpdatedAt = now

			err := ExecuteWithSavepoint(ctx, tx, func(tx *sqlx.Tx) error {
				_, err := tx.ExecContext(ctx, questionQuery,
					q.ID, q.QuizID, q.Type, q.Prompt, q.Options, q.Answers,
					q.Position, q.Points, q.CreatedAt, q.UpdatedAt,
				)
				return err
			}, fmt.Sprintf("question_%d", i))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// AddQuestions appends questions to an existing quiz through the batch
// executor: one retried transaction per chunk, inserts within a chunk
// concurrent. Chunks land sequentially, so a failure stops the append at
// a chunk boundary without touching earlier chunks.
func (r *quizRepository) AddQuestions(ctx context.Context, questions []model.Question) error {
	query := `
		INSERT INTO questions (id, quiz_id, type, prompt, options, answers, position, points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now()
	ops := make([]Operation, len(questions))
	for i := range questions {
		q := &questions[i]
		q.ID = uuid.New()
		q.CreatedAt = now
		q.UpdatedAt = now

		ops[i] = func(tx *sqlx.Tx) (interface{}, error) {
			_, err := tx.ExecContext(ctx, query,
				q.ID, q.QuizID, q.Type, q.Prompt, q.Options, q.Answers,
				q.Position, q.Points, q.CreatedAt, q.UpdatedAt,
			)
			return nil, err
		}
	}

	_, err := BatchExecute(ctx, r.db, ops, DefaultBatchSize, DefaultMaxRetries)
	return err
}

func (r *quizRepository) GetQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.db.GetContext(ctx, &quiz,
		`SELECT * FROM quizzes WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	var questions []model.Question
	if err := r.db.SelectContext(ctx, &questions,
		`SELECT * FROM questions WHERE quiz_id = $1 AND deleted_at IS NULL ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("failed to get quiz questions: %w", err)
	}
	quiz.Questions = questions

	return &quiz, nil
}

func (r *quizRepository) ListQuizzes(ctx context.Context, subchapterID uuid.UUID) ([]*model.Quiz, error) {
	var quizzes []*model.Quiz
	if err := r.db.SelectContext(ctx, &quizzes,
		`SELECT * FROM quizzes WHERE subchapter_id = $1 AND deleted_at IS NULL ORDER BY created_at`, subchapterID); err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, nil
}

func (r *quizRepository) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	return r.WithRetry(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE questions SET deleted_at = $1 WHERE quiz_id = $2 AND deleted_at IS NULL`,
			now, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE quizzes SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
			now, id)
		return err
	})
}

func (r *quizRepository) CreateAttempt(ctx context.Context, attempt *model.QuizAttempt) error {
	query := `
		INSERT INTO quiz_attempts (
			id, quiz_id, user_id, score, max_score, started_at,
			completed_at, responses, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	attempt.ID = uuid.New()
	attempt.CreatedAt = time.Now()
	attempt.UpdatedAt = attempt.CreatedAt

	return r.WithRetry(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			attempt.ID, attempt.QuizID, attempt.UserID, attempt.Score,
			attempt.MaxScore, attempt.StartedAt, attempt.CompletedAt,
			attempt.Responses, attempt.CreatedAt, attempt.UpdatedAt,
		)
		return err
	})
}

func (r *quizRepository) ListAttempts(ctx context.Context, quizID, userID uuid.UUID) ([]*model.QuizAttempt, error) {
	var attempts []*model.QuizAttempt
	if err := r.db.SelectContext(ctx, &attempts,
		`SELECT * FROM quiz_attempts WHERE quiz_id = $1 AND user_id = $2 ORDER BY started_at DESC`,
		quizID, userID); err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}
