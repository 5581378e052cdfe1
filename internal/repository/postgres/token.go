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

type tokenRepository struct {
	BaseRepository
}

func NewTokenRepository(base BaseRepository) repository.TokenRepository {
	return &tokenRepository{base}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.ResetToken) error {
	query := `
		INSERT INTO reset_tokens (id, user_id, token, purpose, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	token.ID = uuid.New()
	token.CreatedAt = time.Now()

	return r.WithRetry(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			token.ID, token.UserID, token.Token, token.Purpose,
			token.ExpiresAt, token.CreatedAt,
		)
		return err
	})
}

func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*model.ResetToken, error) {
	query := `
		SELECT * FROM reset_tokens
		WHERE token = $1 AND used_at IS NULL AND expires_at > $2
	`

	var rt model.ResetToken
	if err := r.db.GetContext(ctx, &rt, query, token, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &rt, nil
}

func (r *tokenRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE reset_tokens SET used_at = $1
		WHERE id = $2 AND used_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark token used: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check token update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("token already used")
	}
	return nil
}

func (r *tokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reset_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}
