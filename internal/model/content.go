package model

import (
	"github.com/google/uuid"
)

// Grade is the top level of the content hierarchy.
type Grade struct {
	Base
	Name        string `json:"name" db:"name"`
	Level       int    `json:"level" db:"level"`
	Description string `json:"description" db:"description"`
}

// Subject belongs to a grade.
type Subject struct {
	Base
	GradeID     uuid.UUID `json:"grade_id" db:"grade_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IconURL     string    `json:"icon_url" db:"icon_url"`
}

// Chapter belongs to a subject.
type Chapter struct {
	Base
	SubjectID uuid.UUID `json:"subject_id" db:"subject_id"`
	Name      string    `json:"name" db:"name"`
	Position  int       `json:"position" db:"position"`
}

// Subchapter belongs to a chapter and carries the actual lesson content.
type Subchapter struct {
	Base
	ChapterID uuid.UUID `json:"chapter_id" db:"chapter_id"`
	Name      string    `json:"name" db:"name"`
	Position  int       `json:"position" db:"position"`
	Content   string    `json:"content" db:"content"`
}

// CreateGradeRequest represents grade creation parameters
type CreateGradeRequest struct {
	Name        string `json:"name" binding:"required,notblank"`
	Level       int    `json:"level" binding:"required,min=1,max=13"`
	Description string `json:"description"`
}

// CreateSubjectRequest represents subject creation parameters
type CreateSubjectRequest struct {
	GradeID     string `json:"grade_id" binding:"required,uuid"`
	Name        string `json:"name" binding:"required,notblank"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url" binding:"omitempty,url"`
}

// CreateChapterRequest represents chapter creation parameters, optionally
// with its subchapters created in the same transaction.
type CreateChapterRequest struct {
	SubjectID   string                    `json:"subject_id" binding:"required,uuid"`
	Name        string                    `json:"name" binding:"required,notblank"`
	Position    int                       `json:"position"`
	Subchapters []CreateSubchapterRequest `json:"subchapters" binding:"omitempty,dive"`
}

// CreateSubchapterRequest represents subchapter creation parameters
type CreateSubchapterRequest struct {
	ChapterID string `json:"chapter_id" binding:"omitempty,uuid"`
	Name      string `json:"name" binding:"required,notblank"`
	Position  int    `json:"position"`
	Content   string `json:"content"`
}

// Upload records a stored file attached to content.
type Upload struct {
	Base
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	FileName    string    `json:"file_name" db:"file_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	StoragePath string    `json:"storage_path" db:"storage_path"`
}
