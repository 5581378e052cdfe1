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

type uploadRepository struct {
	BaseRepository
}

func NewUploadRepository(base BaseRepository) repository.UploadRepository {
	return &uploadRepository{base}
}

func (r *uploadRepository) Create(ctx context.Context, upload *model.Upload) error {
	query := `
		INSERT INTO uploads (id, user_id, file_name, content_type, size_bytes, storage_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	upload.ID = uuid.New()
	upload.CreatedAt = time.Now()
	upload.UpdatedAt = upload.CreatedAt

	return r.WithRetry(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			upload.ID, upload.UserID, upload.FileName, upload.ContentType,
			upload.SizeBytes, upload.StoragePath, upload.CreatedAt, upload.UpdatedAt,
		)
		return err
	})
}

func (r *uploadRepository) Get(ctx context.Context, id uuid.UUID) (*model.Upload, error) {
	var upload model.Upload
	if err := r.db.GetContext(ctx, &upload,
		`SELECT * FROM uploads WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	return &upload, nil
}

func (r *uploadRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Upload, error) {
	var uploads []*model.Upload
	if err := r.db.SelectContext(ctx, &uploads,
		`SELECT * FROM uploads WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, userID); err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return uploads, nil
}
