package enrollments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minhvu-dev/courseloop-backend/pkg/db/models"
)

// Repository defines persistence operations for enrollment rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error)
	FindByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error)
	FindByOrderID(ctx context.Context, orderID string) (*models.Enrollment, error)
	FindByOrderIDForUpdate(ctx context.Context, orderID string) (*models.Enrollment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Enrollment, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// CourseReader is the read-only slice of the catalog the enrollment flow needs.
type CourseReader interface {
	FindCourse(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

// PaymentLinkBuilder turns a persisted enrollment attempt into a provider
// redirect URL.
type PaymentLinkBuilder interface {
	BuildPaymentLink(ctx context.Context, req LinkRequest) (string, error)
}

// Service defines the enrollment/checkout operations.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	ApplyPaymentOutcome(ctx context.Context, orderID string, success bool) (*OutcomeResult, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Enrollment, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Enrollment, error)
	MarkNotified(ctx context.Context, enrollmentID uuid.UUID) error
}
