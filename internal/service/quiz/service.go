package quiz

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

// Service handles quiz authoring, attempts and grading.
type Service struct {
	repo       repository.QuizRepository
	outboxRepo repository.OutboxRepository
}

func NewService(repo repository.QuizRepository, outboxRepo repository.OutboxRepository) *Service {
	return &Service{repo: repo, outboxRepo: outboxRepo}
}

func (s *Service) CreateQuiz(ctx context.Context, req *model.CreateQuizRequest) (*model.Quiz, error) {
	subchapterID, err := uuid.Parse(req.SubchapterID)
	if err != nil {
		return nil, apperrors.NewValidation("invalid subchapter_id", err)
	}

	now := time.Now()
	quiz := &model.Quiz{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		SubchapterID: subchapterID,
		Title:        req.Title,
		Description:  req.Description,
		TimeLimitSec: req.TimeLimitSec,
	}

	for i, q := range req.Questions {
		position := q.Position
		if position == 0 {
			position = i + 1
		}
		points := q.Points
		if points == 0 {
			points = 1
		}
		quiz.Questions = append(quiz.Questions, model.Question{
			Base: model.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			QuizID:   quiz.ID,
			Type:     q.Type,
			Prompt:   q.Prompt,
			Options:  q.Options,
			Answers:  q.Answers,
			Position: position,
			Points:   points,
		})
	}

	if err := s.repo.CreateQuiz(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	s.emitEvent(ctx, model.EventQuizCreated, quiz.ID, map[string]interface{}{
		"subchapter_id": quiz.SubchapterID.String(),
		"questions":     len(quiz.Questions),
	})
	return quiz, nil
}

// AddQuestions appends questions to an existing quiz. Positions default
// to continuing after the current last question; points default to 1.
func (s *Service) AddQuestions(ctx context.Context, quizID uuid.UUID, reqs []model.CreateQuestionRequest) (*model.Quiz, error) {
	quiz, err := s.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, apperrors.NewNotFound("quiz", err)
	}

	questions := make([]model.Question, 0, len(reqs))
	for i, q := range reqs {
		position := q.Position
		if position == 0 {
			position = len(quiz.Questions) + i + 1
		}
		points := q.Points
		if points == 0 {
			points = 1
		}
		questions = append(questions, model.Question{
			QuizID:   quiz.ID,
			Type:     q.Type,
			Prompt:   q.Prompt,
			Options:  q.Options,
			Answers:  q.Answers,
			Position: position,
			Points:   points,
		})
	}

	if err := s.repo.AddQuestions(ctx, questions); err != nil {
		return nil, fmt.Errorf("add questions: %w", err)
	}
	s.emitEvent(ctx, model.EventQuizUpdated, quiz.ID, map[string]interface{}{
		"questions_added": len(questions),
	})
	return s.repo.GetQuiz(ctx, quizID)
}

func (s *Service) GetQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.repo.GetQuiz(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("quiz", err)
	}
	return quiz, nil
}

func (s *Service) ListQuizzes(ctx context.Context, subchapterID uuid.UUID) ([]*model.Quiz, error) {
	return s.repo.ListQuizzes(ctx, subchapterID)
}

func (s *Service) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteQuiz(ctx, id); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}

// SubmitAttempt grades a submission against the stored answer sets and
// records the attempt.
func (s *Service) SubmitAttempt(ctx context.Context, userID uuid.UUID, req *model.SubmitAttemptRequest) (*model.QuizAttempt, error) {
	quizID, err := uuid.Parse(req.QuizID)
	if err != nil {
		return nil, apperrors.NewValidation("invalid quiz_id", err)
	}

	quiz, err := s.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, apperrors.NewNotFound("quiz", err)
	}

	score, maxScore := grade(quiz.Questions, req.Responses)

	now := time.Now()
	attempt := &model.QuizAttempt{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		QuizID:      quiz.ID,
		UserID:      userID,
		Score:       score,
		MaxScore:    maxScore,
		StartedAt:   now,
		CompletedAt: &now,
		Responses:   req.Responses,
	}

	if err := s.repo.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	s.emitEvent(ctx, model.EventQuizAttempted, attempt.ID, map[string]interface{}{
		"quiz_id":   quiz.ID.String(),
		"user_id":   userID.String(),
		"score":     score,
		"max_score": maxScore,
	})
	return attempt, nil
}

func (s *Service) ListAttempts(ctx context.Context, quizID, userID uuid.UUID) ([]*model.QuizAttempt, error) {
	return s.repo.ListAttempts(ctx, quizID, userID)
}

// grade scores responses keyed by question ID. A question earns its
// points only when the selected set matches the answer set exactly;
// there is no partial credit.
func grade(questions []model.Question, responses model.JSONMap) (score, maxScore int) {
	for _, q := range questions {
		maxScore += q.Points
		raw, ok := responses[q.ID.String()]
		if !ok {
			continue
		}
		if answersMatch(q.Answers, raw) {
			score += q.Points
		}
	}
	return score, maxScore
}

// answersMatch compares a stored answer set {"correct": [...]} with the
// submitted selection, order-insensitively.
func answersMatch(answers model.JSONMap, submitted interface{}) bool {
	correct := toStringSet(answers["correct"])
	selected := toStringSet(submitted)
	if len(correct) == 0 || len(correct) != len(selected) {
		return false
	}
	for k := range correct {
		if !selected[k] {
			return false
		}
	}
	return true
}

func toStringSet(v interface{}) map[string]bool {
	set := make(map[string]bool)
	switch vals := v.(type) {
	case []interface{}:
		for _, item := range vals {
			set[fmt.Sprint(item)] = true
		}
	case []string:
		for _, item := range vals {
			set[item] = true
		}
	case string:
		set[vals] = true
	case bool, float64, int:
		set[fmt.Sprint(vals)] = true
	}
	return set
}

func (s *Service) emitEvent(ctx context.Context, eventType string, id uuid.UUID, fields map[string]interface{}) {
	if s.outboxRepo == nil {
		return
	}
	fields["id"] = id.String()
	payload, _ := json.Marshal(fields)
	if err := s.outboxRepo.CreateEvent(ctx, eventType, payload); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to record outbox event")
	}
}
