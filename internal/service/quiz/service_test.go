package quiz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edforge/lms-api/internal/model"
)

type mockQuizRepo struct {
	quizzes  map[uuid.UUID]*model.Quiz
	attempts []*model.QuizAttempt
}

func newMockQuizRepo() *mockQuizRepo {
	return &mockQuizRepo{quizzes: make(map[uuid.UUID]*model.Quiz)}
}

func (m *mockQuizRepo) CreateQuiz(_ context.Context, quiz *model.Quiz) error {
	m.quizzes[quiz.ID] = quiz
	return nil
}

func (m *mockQuizRepo) AddQuestions(_ context.Context, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	quiz, ok := m.quizzes[questions[0].QuizID]
	if !ok {
		return assert.AnError
	}
	quiz.Questions = append(quiz.Questions, questions...)
	return nil
}

func (m *mockQuizRepo) GetQuiz(_ context.Context, id uuid.UUID) (*model.Quiz, error) {
	if q, ok := m.quizzes[id]; ok {
		return q, nil
	}
	return nil, assert.AnError
}

func (m *mockQuizRepo) ListQuizzes(_ context.Context, subchapterID uuid.UUID) ([]*model.Quiz, error) {
	var out []*model.Quiz
	for _, q := range m.quizzes {
		if q.SubchapterID == subchapterID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *mockQuizRepo) DeleteQuiz(_ context.Context, id uuid.UUID) error {
	delete(m.quizzes, id)
	return nil
}

func (m *mockQuizRepo) CreateAttempt(_ context.Context, attempt *model.QuizAttempt) error {
	m.attempts = append(m.attempts, attempt)
	return nil
}

func (m *mockQuizRepo) ListAttempts(_ context.Context, quizID, userID uuid.UUID) ([]*model.QuizAttempt, error) {
	var out []*model.QuizAttempt
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func createTestQuiz(t *testing.T, svc *Service) *model.Quiz {
	t.Helper()
	quiz, err := svc.CreateQuiz(context.Background(), &model.CreateQuizRequest{
		SubchapterID: uuid.New().String(),
		Title:        "Fractions basics",
		Questions: []model.CreateQuestionRequest{
			{
				Type:    model.QuestionTypeSingleChoice,
				Prompt:  "What is 1/2 + 1/4?",
				Options: model.JSONMap{"a": "3/4", "b": "2/6", "c": "1/8"},
				Answers: model.JSONMap{"correct": []interface{}{"a"}},
				Points:  2,
			},
			{
				Type:    model.QuestionTypeMultiChoice,
				Prompt:  "Which equal 1/2?",
				Options: model.JSONMap{"a": "2/4", "b": "3/6", "c": "2/3"},
				Answers: model.JSONMap{"correct": []interface{}{"a", "b"}},
				Points:  3,
			},
			{
				Type:    model.QuestionTypeTrueFalse,
				Prompt:  "1/3 is greater than 1/2.",
				Options: model.JSONMap{"true": "True", "false": "False"},
				Answers: model.JSONMap{"correct": []interface{}{"false"}},
			},
		},
	})
	require.NoError(t, err)
	return quiz
}

func TestCreateQuiz(t *testing.T) {
	svc := NewService(newMockQuizRepo(), nil)
	quiz := createTestQuiz(t, svc)

	require.Len(t, quiz.Questions, 3)
	assert.Equal(t, 1, quiz.Questions[0].Position)
	assert.Equal(t, 3, quiz.Questions[2].Position)
	// Default points fall back to one.
	assert.Equal(t, 1, quiz.Questions[2].Points)
	for _, q := range quiz.Questions {
		assert.Equal(t, quiz.ID, q.QuizID)
	}
}

func TestAddQuestions(t *testing.T) {
	svc := NewService(newMockQuizRepo(), nil)
	quiz := createTestQuiz(t, svc)

	updated, err := svc.AddQuestions(context.Background(), quiz.ID, []model.CreateQuestionRequest{
		{
			Type:    model.QuestionTypeTrueFalse,
			Prompt:  "1/2 equals 0.5",
			Options: model.JSONMap{"true": "True", "false": "False"},
			Answers: model.JSONMap{"correct": []interface{}{"true"}},
		},
		{
			Type:    model.QuestionTypeSingleChoice,
			Prompt:  "What is 3/4 - 1/4?",
			Options: model.JSONMap{"a": "1/2", "b": "1/4"},
			Answers: model.JSONMap{"correct": []interface{}{"a"}},
			Points:  2,
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Questions, 5)

	// Positions continue after the existing questions; points default to one.
	assert.Equal(t, 4, updated.Questions[3].Position)
	assert.Equal(t, 5, updated.Questions[4].Position)
	assert.Equal(t, 1, updated.Questions[3].Points)
	assert.Equal(t, 2, updated.Questions[4].Points)
	assert.Equal(t, quiz.ID, updated.Questions[4].QuizID)
}

func TestAddQuestionsUnknownQuiz(t *testing.T) {
	svc := NewService(newMockQuizRepo(), nil)
	_, err := svc.AddQuestions(context.Background(), uuid.New(), []model.CreateQuestionRequest{
		{
			Type:    model.QuestionTypeTrueFalse,
			Prompt:  "Orphan",
			Options: model.JSONMap{"true": "True", "false": "False"},
			Answers: model.JSONMap{"correct": []interface{}{"true"}},
		},
	})
	assert.Error(t, err)
}

func TestCreateQuizRejectsBadSubchapterID(t *testing.T) {
	svc := NewService(newMockQuizRepo(), nil)
	_, err := svc.CreateQuiz(context.Background(), &model.CreateQuizRequest{
		SubchapterID: "not-a-uuid",
		Title:        "Broken",
		Questions:    []model.CreateQuestionRequest{},
	})
	assert.Error(t, err)
}

func TestSubmitAttemptGrading(t *testing.T) {
	repo := newMockQuizRepo()
	svc := NewService(repo, nil)
	quiz := createTestQuiz(t, svc)
	userID := uuid.New()

	q1 := quiz.Questions[0].ID.String()
	q2 := quiz.Questions[1].ID.String()
	q3 := quiz.Questions[2].ID.String()

	tests := []struct {
		name      string
		responses model.JSONMap
		wantScore int
	}{
		{
			name: "all correct",
			responses: model.JSONMap{
				q1: []interface{}{"a"},
				q2: []interface{}{"b", "a"}, // order must not matter
				q3: "false",
			},
			wantScore: 6,
		},
		{
			name: "partial selection earns nothing",
			responses: model.JSONMap{
				q1: []interface{}{"a"},
				q2: []interface{}{"a"},
				q3: "true",
			},
			wantScore: 2,
		},
		{
			name: "extra selection earns nothing",
			responses: model.JSONMap{
				q2: []interface{}{"a", "b", "c"},
			},
			wantScore: 0,
		},
		{
			name:      "no responses",
			responses: model.JSONMap{},
			wantScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempt, err := svc.SubmitAttempt(context.Background(), userID, &model.SubmitAttemptRequest{
				QuizID:    quiz.ID.String(),
				Responses: tt.responses,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, attempt.Score)
			assert.Equal(t, 6, attempt.MaxScore)
			assert.NotNil(t, attempt.CompletedAt)
		})
	}
}

func TestSubmitAttemptUnknownQuiz(t *testing.T) {
	svc := NewService(newMockQuizRepo(), nil)
	_, err := svc.SubmitAttempt(context.Background(), uuid.New(), &model.SubmitAttemptRequest{
		QuizID:    uuid.New().String(),
		Responses: model.JSONMap{},
	})
	assert.Error(t, err)
}

func TestListAttempts(t *testing.T) {
	repo := newMockQuizRepo()
	svc := NewService(repo, nil)
	quiz := createTestQuiz(t, svc)
	userID := uuid.New()

	_, err := svc.SubmitAttempt(context.Background(), userID, &model.SubmitAttemptRequest{
		QuizID:    quiz.ID.String(),
		Responses: model.JSONMap{},
	})
	require.NoError(t, err)

	attempts, err := svc.ListAttempts(context.Background(), quiz.ID, userID)
	require.NoError(t, err)
	assert.Len(t, attempts, 1)

	attempts, err = svc.ListAttempts(context.Background(), quiz.ID, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, attempts)
}
