package learning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minhvu-dev/courseloop-backend/pkg/db/models"
)

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository builds a lesson progress repository bound to the DB.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) WithTx(tx *gorm.DB) ProgressRepository {
	if tx == nil {
		return r
	}
	return &progressRepository{db: tx}
}

func (r *progressRepository) Find(ctx context.Context, userID, lessonID uuid.UUID) (*models.LessonProgress, error) {
	var progress models.LessonProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *progressRepository) Upsert(ctx context.Context, userID, lessonID uuid.UUID, completed bool) error {
	existing, err := r.Find(ctx, userID, lessonID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return r.db.WithContext(ctx).Create(&models.LessonProgress{
			ID:          uuid.New(),
			UserID:      userID,
			LessonID:    lessonID,
			IsCompleted: completed,
		}).Error
	}
	if existing.IsCompleted == completed {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.LessonProgress{}).
		Where("id = ?", existing.ID).
		Update("is_completed", completed).Error
}

func (r *progressRepository) CountCompleted(ctx context.Context, userID, courseID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LessonProgress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progresses.lesson_id").
		Joins("JOIN chapters ON chapters.id = lessons.chapter_id").
		Where("lesson_progresses.user_id = ? AND lesson_progresses.is_completed = ?", userID, true).
		Where("chapters.course_id = ? AND lessons.is_published = ?", courseID, true).
		Count(&count).Error
	return count, err
}
