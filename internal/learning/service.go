package learning

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minhvu-dev/courseloop-backend/internal/enrollments"
	"github.com/minhvu-dev/courseloop-backend/pkg/db/models"
	"github.com/minhvu-dev/courseloop-backend/pkg/enums"
	pkgerrors "github.com/minhvu-dev/courseloop-backend/pkg/errors"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProgressResult reports the course-level effect of a lesson mark.
type ProgressResult struct {
	LessonID uuid.UUID              `json:"lesson_id"`
	Progress float64                `json:"course_progress"`
	Status   enums.EnrollmentStatus `json:"status"`
}

type service struct {
	progress   ProgressRepository
	catalog    CatalogReader
	enrollRepo enrollments.Repository
	tx         txRunner
	logg       *logger.Logger
}

// NewService builds the learning service with the required dependencies.
func NewService(progress ProgressRepository, catalog CatalogReader, enrollRepo enrollments.Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if progress == nil {
		return nil, fmt.Errorf("progress repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if enrollRepo == nil {
		return nil, fmt.Errorf("enrollments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		progress:   progress,
		catalog:    catalog,
		enrollRepo: enrollRepo,
		tx:         tx,
		logg:       logg,
	}, nil
}

// CompleteLesson marks a lesson done and recomputes course progress. Status
// flips to completed at 100% and back to unfinished below it; the paid flag
// is never touched here.
func (s *service) CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*ProgressResult, error) {
	return s.markLesson(ctx, userID, lessonID, true)
}

// UncompleteLesson clears a completion mark and recomputes course progress.
func (s *service) UncompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*ProgressResult, error) {
	return s.markLesson(ctx, userID, lessonID, false)
}

func (s *service) markLesson(ctx context.Context, userID, lessonID uuid.UUID, completed bool) (*ProgressResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if lessonID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lesson id required")
	}

	lesson, err := s.catalog.FindLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lesson not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lesson")
	}
	if !lesson.IsPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lesson not found")
	}

	courseID, err := s.catalog.CourseIDForLesson(ctx, lessonID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve course for lesson")
	}
	course, err := s.catalog.FindCourse(ctx, courseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load course")
	}

	enrollment, err := s.enrollRepo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not enrolled in this course")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load enrollment")
	}
	if course.PriceCents > 0 && !enrollment.PaymentStatus {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "course has not been paid for")
	}

	if completed && course.IsSequential {
		if err := s.checkPrerequisite(ctx, userID, courseID, lesson); err != nil {
			return nil, err
		}
	}

	result := &ProgressResult{LessonID: lessonID}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		progress := s.progress.WithTx(tx)
		enrollRepo := s.enrollRepo.WithTx(tx)

		if err := progress.Upsert(ctx, userID, lessonID, completed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record lesson progress")
		}

		total, err := s.catalog.CountPublishedLessons(ctx, courseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count lessons")
		}
		done, err := progress.CountCompleted(ctx, userID, courseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count completed lessons")
		}

		pct := 0.0
		if total > 0 {
			pct = float64(done) / float64(total) * 100
		}
		status := enums.EnrollmentStatusUnfinished
		if pct >= 100 {
			status = enums.EnrollmentStatusCompleted
		}

		if err := enrollRepo.Update(ctx, enrollment.ID, map[string]any{
			"progress": pct,
			"status":   status,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update course progress")
		}

		result.Progress = pct
		result.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) checkPrerequisite(ctx context.Context, userID, courseID uuid.UUID, lesson *models.Lesson) error {
	prev, err := s.catalog.FindPreviousLesson(ctx, courseID, lesson)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve previous lesson")
	}
	if prev == nil {
		return nil
	}

	progress, err := s.progress.Find(ctx, userID, prev.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "previous lesson must be completed first")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load previous lesson progress")
	}
	if !progress.IsCompleted {
		return pkgerrors.New(pkgerrors.CodeForbidden, "previous lesson must be completed first")
	}
	return nil
}

func (s *service) GetCourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if courseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "course id required")
	}
	enrollment, err := s.enrollRepo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "enrollment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load enrollment")
	}
	return enrollment, nil
}
