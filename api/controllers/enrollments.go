package controllers

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/minhvu-dev/courseloop-backend/api/middleware"
	"github.com/minhvu-dev/courseloop-backend/api/responses"
	"github.com/minhvu-dev/courseloop-backend/api/validators"
	"github.com/minhvu-dev/courseloop-backend/internal/enrollments"
	"github.com/minhvu-dev/courseloop-backend/pkg/db/models"
	"github.com/minhvu-dev/courseloop-backend/pkg/enums"
	pkgerrors "github.com/minhvu-dev/courseloop-backend/pkg/errors"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
)

type enrollPayload struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=vnpay momo"`
	BankCode      string `json:"bank_code,omitempty" validate:"omitempty,max=32"`
}

type enrollmentView struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	CourseID      string     `json:"course_id"`
	OrderID       *string    `json:"order_id"`
	PaymentStatus bool       `json:"payment_status"`
	Progress      float64    `json:"progress"`
	Status        string     `json:"status"`
	NotifiedAt    *time.Time `json:"notified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type paymentInfoView struct {
	PaymentURL string `json:"payment_url,omitempty"`
	OrderID    string `json:"order_id"`
	Method     string `json:"method"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

type checkoutView struct {
	enrollmentView
	PaymentInfo paymentInfoView `json:"payment_info"`
}

func newEnrollmentView(enrollment *models.Enrollment) enrollmentView {
	return enrollmentView{
		ID:            enrollment.ID.String(),
		UserID:        enrollment.UserID.String(),
		CourseID:      enrollment.CourseID.String(),
		OrderID:       enrollment.OrderID,
		PaymentStatus: enrollment.PaymentStatus,
		Progress:      enrollment.Progress,
		Status:        string(enrollment.Status),
		NotifiedAt:    enrollment.NotifiedAt,
		CreatedAt:     enrollment.CreatedAt,
	}
}

func authedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	return id, nil
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. a bare IPv6 literal.
		return r.RemoteAddr
	}
	return host
}

// Enroll creates or resumes an enrollment and returns the provider redirect.
func Enroll(svc enrollments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "enrollment service unavailable"))
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

		var payload enrollPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Checkout(ctx, enrollments.CheckoutInput{
			UserID:   userID,
			CourseID: courseID,
			Provider: enums.PaymentProvider(payload.PaymentMethod),
			BankCode: payload.BankCode,
			ClientIP: clientIP(r),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view := checkoutView{
			enrollmentView: newEnrollmentView(result.Enrollment),
			PaymentInfo: paymentInfoView{
				PaymentURL: result.PayURL,
				OrderID:    result.OrderID,
				Method:     result.PaymentInfo.Method,
				Amount:     result.PaymentInfo.Amount,
				Currency:   result.PaymentInfo.Currency,
				Success:    result.PaymentInfo.Success,
				Error:      result.PaymentInfo.Error,
			},
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// EnrollmentByOrder looks an enrollment up by its gateway order reference.
// The post-payment return page polls this to show the reconciled state.
func EnrollmentByOrder(svc enrollments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "enrollment service unavailable"))
			return
		}

		orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if orderID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "orderId required"))
			return
		}

		enrollment, err := svc.GetByOrderID(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newEnrollmentView(enrollment))
	}
}

// MyEnrollments lists the caller's enrollments, newest first.
func MyEnrollments(svc enrollments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "enrollment service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListForUser(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		views := make([]enrollmentView, 0, len(rows))
		for i := range rows {
			views = append(views, newEnrollmentView(&rows[i]))
		}
		responses.WriteSuccess(w, views)
	}
}
