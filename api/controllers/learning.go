package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minhvu-dev/courseloop-backend/api/responses"
	"github.com/minhvu-dev/courseloop-backend/api/validators"
	"github.com/minhvu-dev/courseloop-backend/internal/learning"
	pkgerrors "github.com/minhvu-dev/courseloop-backend/pkg/errors"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
)

type progressView struct {
	LessonID string  `json:"lesson_id,omitempty"`
	Progress float64 `json:"progress"`
	Status   string  `json:"status"`
}

// LessonComplete marks a lesson done and returns the recomputed progress.
func LessonComplete(svc learning.Service, logg *logger.Logger) http.HandlerFunc {
	return markLessonHandler(svc, logg, true)
}

// LessonUncomplete clears a completion mark.
func LessonUncomplete(svc learning.Service, logg *logger.Logger) http.HandlerFunc {
	return markLessonHandler(svc, logg, false)
}

func markLessonHandler(svc learning.Service, logg *logger.Logger, complete bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "learning service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		lessonID, err := validators.ParsePathUUID(chi.URLParam(r, "lessonId"), "lessonId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var result *learning.ProgressResult
		if complete {
			result, err = svc.CompleteLesson(ctx, userID, lessonID)
		} else {
			result, err = svc.UncompleteLesson(ctx, userID, lessonID)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, progressView{
			LessonID: result.LessonID.String(),
			Progress: result.Progress,
			Status:   string(result.Status),
		})
	}
}

// CourseProgress returns the caller's progress on one course.
func CourseProgress(svc learning.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "learning service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		courseID, err := validators.ParsePathUUID(chi.URLParam(r, "courseId"), "courseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		enrollment, err := svc.GetCourseProgress(ctx, userID, courseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, progressView{
			Progress: enrollment.Progress,
			Status:   string(enrollment.Status),
		})
	}
}
