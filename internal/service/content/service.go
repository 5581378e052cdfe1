package content

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/edforge/lms-api/internal/model"
	"github.com/edforge/lms-api/internal/repository"
	apperrors "github.com/edforge/lms-api/pkg/errors"
)

// Service manages the grade→subject→chapter→subchapter hierarchy.
type Service struct {
	repo       repository.ContentRepository
	outboxRepo repository.OutboxRepository
}

func NewService(repo repository.ContentRepository, outboxRepo repository.OutboxRepository) *Service {
	return &Service{repo: repo, outboxRepo: outboxRepo}
}

func (s *Service) CreateGrade(ctx context.Context, req *model.CreateGradeRequest) (*model.Grade, error) {
	grade := &model.Grade{
		Base:        newBase(),
		Name:        req.Name,
		Level:       req.Level,
		Description: req.Description,
	}
	if err := s.repo.CreateGrade(ctx, grade); err != nil {
		return nil, fmt.Errorf("create grade: %w", err)
	}
	s.emitEvent(ctx, model.EventContentCreated, "grade", grade.ID)
	return grade, nil
}

func (s *Service) GetGrade(ctx context.Context, id uuid.UUID) (*model.Grade, error) {
	grade, err := s.repo.GetGrade(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("grade", err)
	}
	return grade, nil
}

func (s *Service) ListGrades(ctx context.Context) ([]*model.Grade, error) {
	return s.repo.ListGrades(ctx)
}

func (s *Service) UpdateGrade(ctx context.Context, grade *model.Grade) error {
	grade.UpdatedAt = time.Now()
	if err := s.repo.UpdateGrade(ctx, grade); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	s.emitEvent(ctx, model.EventContentUpdated, "grade", grade.ID)
	return nil
}

func (s *Service) DeleteGrade(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteGrade(ctx, id); err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	s.emitEvent(ctx, model.EventContentDeleted, "grade", id)
	return nil
}

func (s *Service) CreateSubject(ctx context.Context, req *model.CreateSubjectRequest) (*model.Subject, error) {
	gradeID, err := uuid.Parse(req.GradeID)
	if err != nil {
		return nil, apperrors.NewValidation("invalid grade_id", err)
	}
	if _, err := s.repo.GetGrade(ctx, gradeID); err != nil {
		return nil, apperrors.NewNotFound("grade", err)
	}

	subject := &model.Subject{
		Base:        newBase(),
		GradeID:     gradeID,
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
	}
	if err := s.repo.CreateSubject(ctx, subject); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	s.emitEvent(ctx, model.EventContentCreated, "subject", subject.ID)
	return subject, nil
}

func (s *Service) GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	subject, err := s.repo.GetSubject(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("subject", err)
	}
	return subject, nil
}

func (s *Service) ListSubjects(ctx context.Context, gradeID uuid.UUID) ([]*model.Subject, error) {
	return s.repo.ListSubjects(ctx, gradeID)
}

func (s *Service) UpdateSubject(ctx context.Context, subject *model.Subject) error {
	subject.UpdatedAt = time.Now()
	if err := s.repo.UpdateSubject(ctx, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	s.emitEvent(ctx, model.EventContentUpdated, "subject", subject.ID)
	return nil
}

func (s *Service) DeleteSubject(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteSubject(ctx, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	s.emitEvent(ctx, model.EventContentDeleted, "subject", id)
	return nil
}

// CreateChapter creates a chapter and any nested subchapters in a single
// transaction; either everything lands or nothing does.
func (s *Service) CreateChapter(ctx context.Context, req *model.CreateChapterRequest) (*model.Chapter, error) {
	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		return nil, apperrors.NewValidation("invalid subject_id", err)
	}
	if _, err := s.repo.GetSubject(ctx, subjectID); err != nil {
		return nil, apperrors.NewNotFound("subject", err)
	}

	chapter := &model.Chapter{
		Base:      newBase(),
		SubjectID: subjectID,
		Name:      req.Name,
		Position:  req.Position,
	}

	subchapters := make([]*model.Subchapter, 0, len(req.Subchapters))
	for i, sub := range req.Subchapters {
		position := sub.Position
		if position == 0 {
			position = i + 1
		}
		subchapters = append(subchapters, &model.Subchapter{
			Base:      newBase(),
			ChapterID: chapter.ID,
			Name:      sub.Name,
			Position:  position,
			Content:   sub.Content,
		})
	}

	if err := s.repo.CreateChapter(ctx, chapter, subchapters); err != nil {
		return nil, fmt.Errorf("create chapter: %w", err)
	}
	s.emitEvent(ctx, model.EventContentCreated, "chapter", chapter.ID)
	return chapter, nil
}

func (s *Service) GetChapter(ctx context.Context, id uuid.UUID) (*model.Chapter, error) {
	chapter, err := s.repo.GetChapter(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("chapter", err)
	}
	return chapter, nil
}

func (s *Service) ListChapters(ctx context.Context, subjectID uuid.UUID) ([]*model.Chapter, error) {
	return s.repo.ListChapters(ctx, subjectID)
}

func (s *Service) UpdateChapter(ctx context.Context, chapter *model.Chapter) error {
	chapter.UpdatedAt = time.Now()
	if err := s.repo.UpdateChapter(ctx, chapter); err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}
	s.emitEvent(ctx, model.EventContentUpdated, "chapter", chapter.ID)
	return nil
}

func (s *Service) DeleteChapter(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteChapter(ctx, id); err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	s.emitEvent(ctx, model.EventContentDeleted, "chapter", id)
	return nil
}

func (s *Service) CreateSubchapter(ctx context.Context, req *model.CreateSubchapterRequest) (*model.Subchapter, error) {
	chapterID, err := uuid.Parse(req.ChapterID)
	if err != nil {
		return nil, apperrors.NewValidation("invalid chapter_id", err)
	}
	if _, err := s.repo.GetChapter(ctx, chapterID); err != nil {
		return nil, apperrors.NewNotFound("chapter", err)
	}

	subchapter := &model.Subchapter{
		Base:      newBase(),
		ChapterID: chapterID,
		Name:      req.Name,
		Position:  req.Position,
		Content:   req.Content,
	}
	if err := s.repo.CreateSubchapter(ctx, subchapter); err != nil {
		return nil, fmt.Errorf("create subchapter: %w", err)
	}
	s.emitEvent(ctx, model.EventContentCreated, "subchapter", subchapter.ID)
	return subchapter, nil
}

func (s *Service) GetSubchapter(ctx context.Context, id uuid.UUID) (*model.Subchapter, error) {
	subchapter, err := s.repo.GetSubchapter(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("subchapter", err)
	}
	return subchapter, nil
}

func (s *Service) ListSubchapters(ctx context.Context, chapterID uuid.UUID) ([]*model.Subchapter, error) {
	return s.repo.ListSubchapters(ctx, chapterID)
}

func (s *Service) UpdateSubchapter(ctx context.Context, subchapter *model.Subchapter) error {
	subchapter.UpdatedAt = time.Now()
	if err := s.repo.UpdateSubchapter(ctx, subchapter); err != nil {
		return fmt.Errorf("update subchapter: %w", err)
	}
	s.emitEvent(ctx, model.EventContentUpdated, "subchapter", subchapter.ID)
	return nil
}

func (s *Service) DeleteSubchapter(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteSubchapter(ctx, id); err != nil {
		return fmt.Errorf("delete subchapter: %w", err)
	}
	s.emitEvent(ctx, model.EventContentDeleted, "subchapter", id)
	return nil
}

// emitEvent records a best-effort outbox event. Event loss here is
// logged, not fatal; the domain write already committed.
func (s *Service) emitEvent(ctx context.Context, eventType, resource string, id uuid.UUID) {
	if s.outboxRepo == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"resource": resource,
		"id":       id.String(),
	})
	if err := s.outboxRepo.CreateEvent(ctx, eventType, payload); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to record outbox event")
	}
}

func newBase() model.Base {
	now := time.Now()
	return model.Base{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
