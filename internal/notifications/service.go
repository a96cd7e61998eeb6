// Package notifications sends the payment confirmation email exactly once
// per enrollment.
package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhvu-dev/courseloop-backend/pkg/db/models"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
	"github.com/minhvu-dev/courseloop-backend/pkg/mail"
)

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type courseReader interface {
	FindCourse(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type notifiedMarker interface {
	MarkNotified(ctx context.Context, enrollmentID uuid.UUID) error
}

// Service composes and sends the enrollment confirmation email.
type Service struct {
	gate    *Gate
	users   userReader
	courses courseReader
	marker  notifiedMarker
	mailer  mail.Sender
	logg    *logger.Logger
}

// NewService builds the notification service.
func NewService(gate *Gate, users userReader, courses courseReader, marker notifiedMarker, mailer mail.Sender, logg *logger.Logger) (*Service, error) {
	if gate == nil {
		return nil, fmt.Errorf("notification gate required")
	}
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if courses == nil {
		return nil, fmt.Errorf("course reader required")
	}
	if marker == nil {
		return nil, fmt.Errorf("notified marker required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	return &Service{
		gate:    gate,
		users:   users,
		courses: courses,
		marker:  marker,
		mailer:  mailer,
		logg:    logg,
	}, nil
}

// PaymentConfirmed fires the confirmation email for a first successful
// payment. Duplicate calls for the same enrollment are dropped: the
// notified_at stamp survives restarts and the in-process gate covers
// concurrent IPN deliveries before the stamp lands.
func (s *Service) PaymentConfirmed(ctx context.Context, enrollment *models.Enrollment, orderID string) error {
	if enrollment == nil {
		return fmt.Errorf("enrollment required")
	}
	if enrollment.NotifiedAt != nil {
		return nil
	}
	if !s.gate.TryAcquire(enrollment.ID) {
		return nil
	}

	user, err := s.users.FindByID(ctx, enrollment.UserID)
	if err != nil {
		s.gate.Release(enrollment.ID)
		return fmt.Errorf("load user for notification: %w", err)
	}
	course, err := s.courses.FindCourse(ctx, enrollment.CourseID)
	if err != nil {
		s.gate.Release(enrollment.ID)
		return fmt.Errorf("load course for notification: %w", err)
	}

	subject := "Payment confirmed: " + course.Title
	body := confirmationBody(user.Name, course.Title, course.PriceCents, course.Currency, orderID)
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		s.gate.Release(enrollment.ID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	if err := s.marker.MarkNotified(ctx, enrollment.ID); err != nil {
		// Email already went out; the gate still blocks re-sends in this
		// process. Log and move on.
		if s.logg != nil {
			s.logg.Error(ctx, "mark enrollment notified", err)
		}
	}
	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("confirmation email sent for order %s", orderID))
	}
	return nil
}

func confirmationBody(name, courseTitle string, amount int64, currency, orderID string) string {
	price := decimal.NewFromInt(amount).StringFixed(0)
	return fmt.Sprintf(`
	<p>Dear %s,</p>
	<p>Your payment for <strong>%s</strong> has been confirmed.</p>
	<div style="margin: 20px 0; padding: 15px; border: 1px solid #E0E0E0; border-radius: 5px;">
		<ul style="list-style: none; padding: 0; margin: 0;">
			<li style="margin-bottom: 8px;"><strong>Order:</strong> %s</li>
			<li><strong>Amount:</strong> %s %s</li>
		</ul>
	</div>
	<p>You now have full access to the course. Happy learning!</p>
	`, name, courseTitle, orderID, price, currency)
}
