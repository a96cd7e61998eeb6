package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minhvu-dev/courseloop-backend/pkg/db/models"
)

// ProgressRepository defines persistence for per-lesson completion marks.
type ProgressRepository interface {
	WithTx(tx *gorm.DB) ProgressRepository
	Find(ctx context.Context, userID, lessonID uuid.UUID) (*models.LessonProgress, error)
	Upsert(ctx context.Context, userID, lessonID uuid.UUID, completed bool) error
	CountCompleted(ctx context.Context, userID, courseID uuid.UUID) (int64, error)
}

// CatalogReader is the slice of the course catalog the learning flow reads.
type CatalogReader interface {
	FindCourse(ctx context.Context, id uuid.UUID) (*models.Course, error)
	FindLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
	CourseIDForLesson(ctx context.Context, lessonID uuid.UUID) (uuid.UUID, error)
	FindPreviousLesson(ctx context.Context, courseID uuid.UUID, lesson *models.Lesson) (*models.Lesson, error)
	CountPublishedLessons(ctx context.Context, courseID uuid.UUID) (int64, error)
}

// Service defines the lesson-completion operations.
type Service interface {
	CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*ProgressResult, error)
	UncompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*ProgressResult, error)
	GetCourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error)
}
