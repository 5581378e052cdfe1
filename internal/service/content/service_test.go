package content

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edforge/lms-api/internal/model"
)

type mockContentRepo struct {
	grades      map[uuid.UUID]*model.Grade
	subjects    map[uuid.UUID]*model.Subject
	chapters    map[uuid.UUID]*model.Chapter
	subchapters map[uuid.UUID]*model.Subchapter
}

func newMockContentRepo() *mockContentRepo {
	return &mockContentRepo{
		grades:      make(map[uuid.UUID]*model.Grade),
		subjects:    make(map[uuid.UUID]*model.Subject),
		chapters:    make(map[uuid.UUID]*model.Chapter),
		subchapters: make(map[uuid.UUID]*model.Subchapter),
	}
}

func (m *mockContentRepo) CreateGrade(_ context.Context, g *model.Grade) error {
	m.grades[g.ID] = g
	return nil
}

func (m *mockContentRepo) GetGrade(_ context.Context, id uuid.UUID) (*model.Grade, error) {
	if g, ok := m.grades[id]; ok {
		return g, nil
	}
	return nil, assert.AnError
}

func (m *mockContentRepo) ListGrades(_ context.Context) ([]*model.Grade, error) {
	var out []*model.Grade
	for _, g := range m.grades {
		out = append(out, g)
	}
	return out, nil
}

func (m *mockContentRepo) UpdateGrade(_ context.Context, g *model.Grade) error {
	m.grades[g.ID] = g
	return nil
}

func (m *mockContentRepo) DeleteGrade(_ context.Context, id uuid.UUID) error {
	delete(m.grades, id)
	return nil
}

func (m *mockContentRepo) CreateSubject(_ context.Context, s *model.Subject) error {
	m.subjects[s.ID] = s
	return nil
}

func (m *mockContentRepo) GetSubject(_ context.Context, id uuid.UUID) (*model.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, assert.AnError
}

func (m *mockContentRepo) ListSubjects(_ context.Context, gradeID uuid.UUID) ([]*model.Subject, error) {
	var out []*model.Subject
	for _, s := range m.subjects {
		if s.GradeID == gradeID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockContentRepo) UpdateSubject(_ context.Context, s *model.Subject) error {
	m.subjects[s.ID] = s
	return nil
}

func (m *mockContentRepo) DeleteSubject(_ context.Context, id uuid.UUID) error {
	delete(m.subjects, id)
	return nil
}

func (m *mockContentRepo) CreateChapter(_ context.Context, c *model.Chapter, subs []*model.Subchapter) error {
	m.chapters[c.ID] = c
	for _, sub := range subs {
		m.subchapters[sub.ID] = sub
	}
	return nil
}

func (m *mockContentRepo) GetChapter(_ context.Context, id uuid.UUID) (*model.Chapter, error) {
	if c, ok := m.chapters[id]; ok {
		return c, nil
	}
	return nil, assert.AnError
}

func (m *mockContentRepo) ListChapters(_ context.Context, subjectID uuid.UUID) ([]*model.Chapter, error) {
	var out []*model.Chapter
	for _, c := range m.chapters {
		if c.SubjectID == subjectID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockContentRepo) UpdateChapter(_ context.Context, c *model.Chapter) error {
	m.chapters[c.ID] = c
	return nil
}

func (m *mockContentRepo) DeleteChapter(_ context.Context, id uuid.UUID) error {
	delete(m.chapters, id)
	return nil
}

func (m *mockContentRepo) CreateSubchapter(_ context.Context, s *model.Subchapter) error {
	m.subchapters[s.ID] = s
	return nil
}

func (m *mockContentRepo) GetSubchapter(_ context.Context, id uuid.UUID) (*model.Subchapter, error) {
	if s, ok := m.subchapters[id]; ok {
		return s, nil
	}
	return nil, assert.AnError
}

func (m *mockContentRepo) ListSubchapters(_ context.Context, chapterID uuid.UUID) ([]*model.Subchapter, error) {
	var out []*model.Subchapter
	for _, s := range m.subchapters {
		if s.ChapterID == chapterID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockContentRepo) UpdateSubchapter(_ context.Context, s *model.Subchapter) error {
	m.subchapters[s.ID] = s
	return nil
}

func (m *mockContentRepo) DeleteSubchapter(_ context.Context, id uuid.UUID) error {
	delete(m.subchapters, id)
	return nil
}

func TestCreateGrade(t *testing.T) {
	svc := NewService(newMockContentRepo(), nil)

	grade, err := svc.CreateGrade(context.Background(), &model.CreateGradeRequest{
		Name:  "Grade 5",
		Level: 5,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, grade.ID)
	assert.Equal(t, 5, grade.Level)

	got, err := svc.GetGrade(context.Background(), grade.ID)
	require.NoError(t, err)
	assert.Equal(t, grade.ID, got.ID)
}

func TestCreateSubjectRequiresGrade(t *testing.T) {
	repo := newMockContentRepo()
	svc := NewService(repo, nil)

	_, err := svc.CreateSubject(context.Background(), &model.CreateSubjectRequest{
		GradeID: uuid.New().String(),
		Name:    "Mathematics",
	})
	assert.Error(t, err)

	grade, err := svc.CreateGrade(context.Background(), &model.CreateGradeRequest{Name: "Grade 5", Level: 5})
	require.NoError(t, err)

	subject, err := svc.CreateSubject(context.Background(), &model.CreateSubjectRequest{
		GradeID: grade.ID.String(),
		Name:    "Mathematics",
	})
	require.NoError(t, err)
	assert.Equal(t, grade.ID, subject.GradeID)
}

func TestCreateChapterWithSubchapters(t *testing.T) {
	repo := newMockContentRepo()
	svc := NewService(repo, nil)

	grade, err := svc.CreateGrade(context.Background(), &model.CreateGradeRequest{Name: "Grade 5", Level: 5})
	require.NoError(t, err)
	subject, err := svc.CreateSubject(context.Background(), &model.CreateSubjectRequest{
		GradeID: grade.ID.String(),
		Name:    "Mathematics",
	})
	require.NoError(t, err)

	chapter, err := svc.CreateChapter(context.Background(), &model.CreateChapterRequest{
		SubjectID: subject.ID.String(),
		Name:      "Fractions",
		Subchapters: []model.CreateSubchapterRequest{
			{Name: "Introduction", Content: "What is a fraction?"},
			{Name: "Adding fractions", Content: "Common denominators."},
		},
	})
	require.NoError(t, err)

	subs, err := svc.ListSubchapters(context.Background(), chapter.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	// Positions default to list order.
	positions := map[int]bool{}
	for _, sub := range subs {
		assert.Equal(t, chapter.ID, sub.ChapterID)
		positions[sub.Position] = true
	}
	assert.True(t, positions[1])
	assert.True(t, positions[2])
}

func TestCreateChapterUnknownSubject(t *testing.T) {
	svc := NewService(newMockContentRepo(), nil)
	_, err := svc.CreateChapter(context.Background(), &model.CreateChapterRequest{
		SubjectID: uuid.New().String(),
		Name:      "Orphan",
	})
	assert.Error(t, err)
}
