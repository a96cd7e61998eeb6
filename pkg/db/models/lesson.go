package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/minhvu-dev/courseloop-backend/pkg/enums"
)

// Chapter orders lessons within a course.
type Chapter struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CourseID  uuid.UUID `gorm:"column:course_id;type:uuid;not null;index"`
	Title     string    `gorm:"column:title;not null"`
	Position  int       `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Lessons []Lesson `gorm:"foreignKey:ChapterID"`
}

// Lesson is a single content unit inside a chapter.
type Lesson struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChapterID   uuid.UUID        `gorm:"column:chapter_id;type:uuid;not null;index"`
	Title       string           `gorm:"column:title;not null"`
	Type        enums.LessonType `gorm:"column:type;type:lesson_type;not null;default:'text'"`
	ContentURL  *string          `gorm:"column:content_url"`
	Position    int              `gorm:"column:position;not null;default:0"`
	IsPublished bool             `gorm:"column:is_published;not null;default:false"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// LessonProgress marks one user's completion of one lesson.
type LessonProgress struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_lesson_progress_user_lesson"`
	LessonID    uuid.UUID `gorm:"column:lesson_id;type:uuid;not null;uniqueIndex:idx_lesson_progress_user_lesson"`
	IsCompleted bool      `gorm:"column:is_completed;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
