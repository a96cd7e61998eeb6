package enrollments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minhvu-dev/courseloop-backend/pkg/db"
	"github.com/minhvu-dev/courseloop-backend/pkg/db/models"
	pkgerrors "github.com/minhvu-dev/courseloop-backend/pkg/errors"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
	"github.com/minhvu-dev/courseloop-backend/pkg/orderid"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	courses  CourseReader
	tx       txRunner
	orderIDs orderid.Generator
	links    PaymentLinkBuilder
	logg     *logger.Logger
}

// NewService builds the enrollment service with the required dependencies.
func NewService(repo Repository, courses CourseReader, tx txRunner, orderIDs orderid.Generator, links PaymentLinkBuilder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("enrollments repository required")
	}
	if courses == nil {
		return nil, fmt.Errorf("course reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orderIDs == nil {
		return nil, fmt.Errorf("order id generator required")
	}
	if links == nil {
		return nil, fmt.Errorf("payment link builder required")
	}
	return &service{
		repo:     repo,
		courses:  courses,
		tx:       tx,
		orderIDs: orderIDs,
		links:    links,
		logg:     logg,
	}, nil
}

// Checkout creates or resumes the enrollment row, assigns a fresh order
// reference and returns the provider redirect URL. The quoted amount always
// comes from the course row.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.CourseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "course id required")
	}
	if !input.Provider.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}

	course, err := s.courses.FindCourse(ctx, input.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "course not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load course")
	}
	if !course.IsPublic {
		return nil, pkgerrors.New(pkgerrors.CodeCourseNotPublic, "course is not open for enrollment")
	}

	orderID := s.orderIDs.NewOrderID()
	var enrollment *models.Enrollment

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByUserAndCourse(ctx, input.UserID, input.CourseID)
		switch {
		case err == nil:
			return resumeAttempt(ctx, repo, existing, orderID, &enrollment)
		case errors.Is(err, gorm.ErrRecordNotFound):
			// fall through to create
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load enrollment")
		}

		fresh := &models.Enrollment{
			UserID:   input.UserID,
			CourseID: input.CourseID,
			OrderID:  &orderID,
		}
		created, err := repo.Create(ctx, fresh)
		if err == nil {
			enrollment = created
			return nil
		}
		if !db.IsUniqueViolation(err, "idx_enrollments_user_course") {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create enrollment")
		}

		// Lost a create race against a concurrent checkout for the same
		// user/course pair; resume the surviving row instead.
		existing, err = repo.FindByUserAndCourse(ctx, input.UserID, input.CourseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload enrollment after conflict")
		}
		return resumeAttempt(ctx, repo, existing, orderID, &enrollment)
	})
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{
		Enrollment: enrollment,
		OrderID:    orderID,
		PaymentInfo: PaymentInfo{
			Method:   input.Provider.DisplayName(),
			Amount:   formatAmount(course.PriceCents),
			Currency: course.Currency,
		},
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, orderID)
	}

	payURL, err := s.links.BuildPaymentLink(ctx, LinkRequest{
		Provider: input.Provider,
		OrderID:  orderID,
		UserID:   input.UserID,
		CourseID: input.CourseID,
		Amount:   course.PriceCents,
		BankCode: input.BankCode,
		ClientIP: input.ClientIP,
	})
	if err != nil {
		// The enrollment row stays valid for a retry; the client sees a
		// structured failure instead of a 5xx.
		if s.logg != nil {
			s.logg.Error(ctx, "build payment link", err)
		}
		result.PaymentInfo.Error = publicLinkError(err)
		return result, nil
	}

	result.PayURL = payURL
	result.PaymentInfo.Success = true
	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("checkout via %s", input.Provider))
	}
	return result, nil
}

func publicLinkError(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return pkgerrors.MetadataFor(typed.Code()).PublicMessage
	}
	return "payment gateway unavailable"
}

func resumeAttempt(ctx context.Context, repo Repository, existing *models.Enrollment, orderID string, out **models.Enrollment) error {
	if existing.PaymentStatus {
		return pkgerrors.New(pkgerrors.CodeAlreadyPaid, "course already paid for")
	}
	if err := repo.Update(ctx, existing.ID, map[string]any{"order_id": orderID}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign order id")
	}
	existing.OrderID = &orderID
	*out = existing
	return nil
}

// ApplyPaymentOutcome reconciles a verified IPN against the enrollment the
// order reference points to. The row is locked for the duration of the
// transaction so duplicate deliveries serialize. A successful outcome flips
// payment_status exactly once; a failed outcome never resets a paid row.
func (s *service) ApplyPaymentOutcome(ctx context.Context, orderID string, success bool) (*OutcomeResult, error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order id missing")
	}

	result := &OutcomeResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		enrollment, err := repo.FindByOrderIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeOrderNotFound, "no enrollment for order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load enrollment by order")
		}
		result.Enrollment = enrollment

		if !success {
			// Terminal failure ack; payment_status stays as-is.
			return nil
		}
		if enrollment.PaymentStatus {
			result.AlreadyPaid = true
			return nil
		}

		if err := repo.Update(ctx, enrollment.ID, map[string]any{"payment_status": true}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark enrollment paid")
		}
		enrollment.PaymentStatus = true
		result.FirstSuccess = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetByOrderID(ctx context.Context, orderID string) (*models.Enrollment, error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	enrollment, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "no enrollment for order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load enrollment by order")
	}
	return enrollment, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Enrollment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list enrollments")
	}
	return rows, nil
}

// MarkNotified stamps the confirmation-email timestamp. Only the first call
// per enrollment writes; later calls are no-ops so duplicate success IPNs
// cannot re-send mail after a restart.
func (s *service) MarkNotified(ctx context.Context, enrollmentID uuid.UUID) error {
	if enrollmentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "enrollment id required")
	}
	now := time.Now().UTC()
	err := s.repo.Update(ctx, enrollmentID, map[string]any{"notified_at": &now})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notified")
	}
	return nil
}
