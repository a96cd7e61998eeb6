package enrollments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhvu-dev/courseloop-backend/pkg/db/models"
	"github.com/minhvu-dev/courseloop-backend/pkg/enums"
)

// CheckoutInput captures a client's request to enroll and pay.
type CheckoutInput struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	Provider enums.PaymentProvider
	BankCode string
	ClientIP string
}

// LinkRequest is handed to the provider gateway after the enrollment row is
// persisted. Amount is the canonical course price in VND, never taken from
// the client.
type LinkRequest struct {
	Provider enums.PaymentProvider
	OrderID  string
	UserID   uuid.UUID
	CourseID uuid.UUID
	Amount   int64
	BankCode string
	ClientIP string
}

// PaymentInfo is the display block returned alongside the redirect URL.
// Success is false when the gateway could not produce a redirect; the
// enrollment row survives so the client can retry checkout.
type PaymentInfo struct {
	Method   string `json:"method"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// CheckoutResult is returned to the client after a checkout attempt.
type CheckoutResult struct {
	Enrollment  *models.Enrollment `json:"enrollment"`
	OrderID     string             `json:"order_id"`
	PayURL      string             `json:"pay_url"`
	PaymentInfo PaymentInfo        `json:"payment_info"`
}

// OutcomeResult reports what an IPN application changed.
type OutcomeResult struct {
	Enrollment   *models.Enrollment
	FirstSuccess bool
	AlreadyPaid  bool
}

func formatAmount(amount int64) string {
	return decimal.NewFromInt(amount).StringFixed(0)
}
