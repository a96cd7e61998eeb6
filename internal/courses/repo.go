// Package courses exposes the read-only catalog surface the enrollment and
// learning flows depend on. Catalog authoring lives elsewhere.
package courses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minhvu-dev/courseloop-backend/pkg/db/models"
	"github.com/minhvu-dev/courseloop-backend/pkg/pagination"
)

// Repository defines catalog reads.
type Repository interface {
	FindCourse(ctx context.Context, id uuid.UUID) (*models.Course, error)
	FindCourseWithContent(ctx context.Context, id uuid.UUID) (*models.Course, error)
	ListPublic(ctx context.Context, page pagination.Params) ([]models.Course, string, error)
	CountPublishedLessons(ctx context.Context, courseID uuid.UUID) (int64, error)
	FindLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
	CourseIDForLesson(ctx context.Context, lessonID uuid.UUID) (uuid.UUID, error)
	FindPreviousLesson(ctx context.Context, courseID uuid.UUID, lesson *models.Lesson) (*models.Lesson, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *repository) FindCourseWithContent(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("chapters.position ASC")
		}).
		Preload("Chapters.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.position ASC")
		}).
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// ListPublic pages through the public catalog newest-first. The returned
// cursor is empty on the last page.
func (r *repository) ListPublic(ctx context.Context, page pagination.Params) ([]models.Course, string, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(page.Limit))
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Course
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	limit := pagination.NormalizeLimit(page.Limit)
	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

func (r *repository) CountPublishedLessons(ctx context.Context, courseID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Lesson{}).
		Joins("JOIN chapters ON chapters.id = lessons.chapter_id").
		Where("chapters.course_id = ? AND lessons.is_published = ?", courseID, true).
		Count(&count).Error
	return count, err
}

func (r *repository) FindLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	var lesson models.Lesson
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&lesson).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// FindPreviousLesson returns the published lesson immediately before the
// given one in course order, or nil when it is the first.
func (r *repository) FindPreviousLesson(ctx context.Context, courseID uuid.UUID, lesson *models.Lesson) (*models.Lesson, error) {
	var chapter models.Chapter
	err := r.db.WithContext(ctx).
		Where("id = ?", lesson.ChapterID).
		First(&chapter).Error
	if err != nil {
		return nil, err
	}

	var prev models.Lesson
	err = r.db.WithContext(ctx).
		Joins("JOIN chapters ON chapters.id = lessons.chapter_id").
		Where("chapters.course_id = ? AND lessons.is_published = ?", courseID, true).
		Where("chapters.position < ? OR (chapters.position = ? AND lessons.position < ?)",
			chapter.Position, chapter.Position, lesson.Position).
		Order("chapters.position DESC, lessons.position DESC").
		First(&prev).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &prev, nil
}

func (r *repository) CourseIDForLesson(ctx context.Context, lessonID uuid.UUID) (uuid.UUID, error) {
	var chapter models.Chapter
	err := r.db.WithContext(ctx).
		Select("chapters.*").
		Joins("JOIN lessons ON lessons.chapter_id = chapters.id").
		Where("lessons.id = ?", lessonID).
		First(&chapter).Error
	if err != nil {
		return uuid.Nil, err
	}
	return chapter.CourseID, nil
}
