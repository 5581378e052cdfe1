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

type contentRepository struct {
	BaseRepository
}

func NewContentRepository(base BaseRepository) repository.ContentRepository {
	return &contentRepository{base}
}

func (r *contentRepository) CreateGrade(ctx context.Context, grade *model.Grade) error {
	query := `
		INSERT INTO grades (id, name, level, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	grade.ID = uuid.New()
	grade.CreatedAt = time.Now()
	grade.UpdatedAt = time.Now()

	return r.WithRetry(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			grade.ID, grade.Name, grade.Level, grade.Description,
			grade.CreatedAt, grade.UpdatedAt,
		)
		return err
	})
}

func (r *contentRepository) GetGrade(ctx context.Context, id uuid.UUID) (*model.Grade, error) {
	var grade model.Grade
	if err := r.db.GetContext(ctx, &grade,
		`SELECT * FROM grades WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
		return nil, fmt.Errorf("failed to get grade: %w", err)
	}
	return &grade, nil
}

func (r *contentRepository) ListGrades(ctx context.Context) ([]*model.Grade, error) {
	var grades []*model.Grade
	if err := r.db.SelectContext(ctx, &grades,
		`SELECT * FROM grades WHERE deleted_at IS NULL ORDER BY level`); err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	return grades, nil
}

func (r *contentRepository) UpdateGrade(ctx context.Context, grade *model.Grade) error {
	query := `
		UPDATE grades SET name = $1, level = $2, description = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`
	return r.execExpectingRow(ctx, "grade", query,
		grade.Name, grade.Level, grade.Description, time.Now(), grade.ID)
}

func (r *contentRepository) DeleteGrade(ctx context.Context, id uuid.UUID) error {
	return r.softDelete(ctx, "grades", id)
}

func (r *contentRepository) CreateSubject(ctx context.Context, subject *model.Subject) error {
	query := `
		INSERT INTO subjects (id, grade_id, name, description, icon_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	subject.ID = uuid.New()
	subject.CreatedAt = time.Now()
	subject.UpdatedAt = time.Now()

	return r.WithRetry(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			subject.ID, subject.GradeID, subject.Name, subject.Description,
			subject.IconURL, subject.CreatedAt, subject.UpdatedAt,
		)
		return err
	})
}

func (r *contentRepository) GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	var subject model.Subject
	if err := r.db.GetContext(ctx, &subject,
		`SELECT * FROM subjects WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return &subject, nil
}

func (r *contentRepository) ListSubjects(ctx context.Context, gradeID uuid.UUID) ([]*model.Subject, error) {
	var subjects []*model.Subject
	if err := r.db.SelectContext(ctx, &subjects,
		`SELECT * FROM subjects WHERE grade_id = $1 AND deleted_at IS NULL ORDER BY name`, gradeID); err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	return subjects, nil
}

func (r *contentRepository) UpdateSubject(ctx context.Context, subject *model.Subject) error {
	query := `
		UPDATE subjects SET name = $1, description = $2, icon_url = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`
	return r.execExpectingRow(ctx, "subject", query,
		subject.Name, subject.Description, subject.IconURL, time.Now(), subject.ID)
}

func (r *contentRepository) DeleteSubject(ctx context.Context, id uuid.UUID) error {
	return r.softDelete(ctx, "subjects", id)
}

// CreateChapter inserts the chapter and its subchapters as one retried
// transaction, so a partially created hierarchy never becomes visible.
func (r *contentRepository) CreateChapter(ctx context.Context, chapter *model.Chapter, subchapters []*model.Subchapter) error {
	chapterQuery := `
		INSERT INTO chapters (id, subject_id, name, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	subchapterQuery := `
		INSERT INTO subchapters (id, chapter_id, name, position, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now()
	chapter.ID = uuid.New()
	chapter.CreatedAt = now
	chapter.UpdatedAt = now

	return r.WithRetry(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, chapterQuery,
			chapter.ID, chapter.SubjectID, chapter.Name, chapter.Position,
			chapter.CreatedAt, chapter.UpdatedAt,
		); err != nil {
			return err
		}

		for _, sc := range subchapters {
			sc.ID = uuid.New()
			sc.ChapterID = chapter.ID
			sc.CreatedAt = now
			sc.UpdatedAt = now
			if _, err := tx.ExecContext(ctx, subchapterQuery,
				sc.ID, sc.ChapterID, sc.Name, sc.Position, sc.Content,
				sc.CreatedAt, sc.UpdatedAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *contentRepository) GetChapter(ctx context.Context, id uuid.UUID) (*model.Chapter, error) {
	var chapter model.Chapter
	if err := r.db.GetContext(ctx, &chapter,
		`SELECT * FROM chapters WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

func (r *contentRepository) ListChapters(ctx context.Context, subjectID uuid.UUID) ([]*model.Chapter, error) {
	var chapters []*model.Chapter
	if err := r.db.SelectContext(ctx, &chapters,
		`SELECT * FROM chapters WHERE subject_id = $1 AND deleted_at IS NULL ORDER BY position`, subjectID); err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

func (r *contentRepository) UpdateChapter(ctx context.Context, chapter *model.Chapter) error {
	query := `
		UPDATE chapters SET name = $1, position = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL
	`
	return r.execExpectingRow(ctx, "chapter", query,
		chapter.Name, chapter.Position, time.Now(), chapter.ID)
}

// DeleteChapter soft-deletes the chapter and its subchapters together.
func (r *contentRepository) DeleteChapter(ctx context.Context, id uuid.UUID) error {
	return r.WithRetry(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE subchapters SET deleted_at = $1 WHERE chapter_id = $2 AND deleted_at IS NULL`,
			now, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE chapters SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
			now, id)
		return err
	})
}

func (r *contentRepository) CreateSubchapter(ctx context.Context, subchapter *model.Subchapter) error {
	query := `
		INSERT INTO subchapters (id, chapter_id, name, position, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	subchapter.ID = uuid.New()
	subchapter.CreatedAt = time.Now()
	subchapter.UpdatedAt = time.Now()

	return r.WithRetry(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			subchapter.ID, subchapter.ChapterID, subchapter.Name,
			subchapter.Position, subchapter.Content,
			subchapter.CreatedAt, subchapter.UpdatedAt,
		)
		return err
	})
}

func (r *contentRepository) GetSubchapter(ctx context.Context, id uuid.UUID) (*model.Subchapter, error) {
	var subchapter model.Subchapter
	if err := r.db.GetContext(ctx, &subchapter,
		`SELECT * FROM subchapters WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
		return nil, fmt.Errorf("failed to get subchapter: %w", err)
	}
	return &subchapter, nil
}

func (r *contentRepository) ListSubchapters(ctx context.Context, chapterID uuid.UUID) ([]*model.Subchapter, error) {
	var subchapters []*model.Subchapter
	if err := r.db.SelectContext(ctx, &subchapters,
		`SELECT * FROM subchapters WHERE chapter_id = $1 AND deleted_at IS NULL ORDER BY position`, chapterID); err != nil {
		return nil, fmt.Errorf("failed to list subchapters: %w", err)
	}
	return subchapters, nil
}

func (r *contentRepository) UpdateSubchapter(ctx context.Context, subchapter *model.Subchapter) error {
	query := `
		UPDATE subchapters SET name = $1, position = $2, content = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`
	return r.execExpectingRow(ctx, "subchapter", query,
		subchapter.Name, subchapter.Position, subchapter.Content, time.Now(), subchapter.ID)
}

func (r *contentRepository) DeleteSubchapter(ctx context.Context, id uuid.UUID) error {
	return r.softDelete(ctx, "subchapters", id)
}

func (r *contentRepository) execExpectingRow(ctx context.Context, entity, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", entity, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found", entity)
	}
	return nil
}

func (r *contentRepository) softDelete(ctx context.Context, table string, id uuid.UUID) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`, table)
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}
