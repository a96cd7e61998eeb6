package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/minhvu-dev/courseloop-backend/api/responses"
	"github.com/minhvu-dev/courseloop-backend/api/validators"
	"github.com/minhvu-dev/courseloop-backend/internal/courses"
	"github.com/minhvu-dev/courseloop-backend/pkg/db/models"
	pkgerrors "github.com/minhvu-dev/courseloop-backend/pkg/errors"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
	"github.com/minhvu-dev/courseloop-backend/pkg/pagination"
)

type courseView struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	PriceCents   int64   `json:"price_cents"`
	Currency     string  `json:"currency"`
	ImageURL     *string `json:"image_url,omitempty"`
	IsSequential bool    `json:"is_sequential"`
}

type lessonView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Position    int    `json:"position"`
	IsPublished bool   `json:"is_published"`
}

type chapterView struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Position int          `json:"position"`
	Lessons  []lessonView `json:"lessons"`
}

type courseDetailView struct {
	courseView
	Chapters []chapterView `json:"chapters"`
}

func newCourseView(course *models.Course) courseView {
	return courseView{
		ID:           course.ID.String(),
		Title:        course.Title,
		Description:  course.Description,
		PriceCents:   course.PriceCents,
		Currency:     course.Currency,
		ImageURL:     course.ImageURL,
		IsSequential: course.IsSequential,
	}
}

func newCourseDetailView(course *models.Course) courseDetailView {
	detail := courseDetailView{
		courseView: newCourseView(course),
		Chapters:   make([]chapterView, 0, len(course.Chapters)),
	}
	for _, chapter := range course.Chapters {
		cv := chapterView{
			ID:       chapter.ID.String(),
			Title:    chapter.Title,
			Position: chapter.Position,
			Lessons:  make([]lessonView, 0, len(chapter.Lessons)),
		}
		for _, lesson := range chapter.Lessons {
			if !lesson.IsPublished {
				continue
			}
			cv.Lessons = append(cv.Lessons, lessonView{
				ID:          lesson.ID.String(),
				Title:       lesson.Title,
				Type:        string(lesson.Type),
				Position:    lesson.Position,
				IsPublished: lesson.IsPublished,
			})
		}
		detail.Chapters = append(detail.Chapters, cv)
	}
	return detail
}

type courseListView struct {
	Courses    []courseView `json:"courses"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CourseList returns the public catalog, newest first, cursor-paged.
func CourseList(repo courses.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "course repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		page := pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}
		if _, err := pagination.ParseCursor(page.Cursor); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cursor is not a valid page token"))
			return
		}

		rows, nextCursor, err := repo.ListPublic(ctx, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list courses"))
			return
		}

		views := make([]courseView, 0, len(rows))
		for i := range rows {
			views = append(views, newCourseView(&rows[i]))
		}
		responses.WriteSuccess(w, courseListView{Courses: views, NextCursor: nextCursor})
	}
}

// CourseDetail returns one public course with its published content tree.
func CourseDetail(repo courses.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "course repository unavailable"))
			return
		}

		courseID, err := validators.ParsePathUUID(chi.URLParam(r, "courseId"), "courseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		course, err := repo.FindCourseWithContent(ctx, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "course not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load course"))
			return
		}
		if !course.IsPublic {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "course not found"))
			return
		}

		responses.WriteSuccess(w, newCourseDetailView(course))
	}
}
